package sampling

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/meshscan/spatialmath"
)

// DefaultCount is the number of directions used by the counted strategies when none is given.
const DefaultCount = 100

// Config selects a strategy by type. Attributes hold the strategy-specific settings.
type Config struct {
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

type countAttrs struct {
	Count int   `json:"count"`
	Seed  int64 `json:"seed"`
}

// the sphere strategy takes its directions from a mesh and has no attributes.
type sphereAttrs struct{}

type geodesicAttrs struct {
	Subdivisions int `json:"subdivisions"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	attrPath := path + ".attributes"
	switch conf.Type {
	case TypeSphere:
		if err := decodeAttributes(conf.Attributes, &sphereAttrs{}); err != nil {
			return utils.NewConfigValidationError(attrPath, err)
		}
	case TypeFibonacci, TypeRandom:
		var attrs countAttrs
		if err := decodeAttributes(conf.Attributes, &attrs); err != nil {
			return utils.NewConfigValidationError(attrPath, err)
		}
		if attrs.Count < 0 {
			return utils.NewConfigValidationError(attrPath+".count",
				errors.Errorf("must be non-negative, got %d", attrs.Count))
		}
	case TypeGeodesic:
		var attrs geodesicAttrs
		if err := decodeAttributes(conf.Attributes, &attrs); err != nil {
			return utils.NewConfigValidationError(attrPath, err)
		}
		if attrs.Subdivisions < 0 {
			return utils.NewConfigValidationError(attrPath+".subdivisions",
				errors.Errorf("must be non-negative, got %d", attrs.Subdivisions))
		}
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown sampler type %q", conf.Type))
	}
	return nil
}

// NewFromConfig builds the strategy described by conf. The sphere mesh is only used by the
// sphere strategy and may be nil otherwise.
func NewFromConfig(conf Config, sphere *spatialmath.Mesh) (DirectionSampler, error) {
	switch conf.Type {
	case TypeSphere:
		if err := decodeAttributes(conf.Attributes, &sphereAttrs{}); err != nil {
			return nil, err
		}
		return NewMeshVertices(sphere)
	case TypeFibonacci:
		attrs := countAttrs{Count: DefaultCount}
		if err := decodeAttributes(conf.Attributes, &attrs); err != nil {
			return nil, err
		}
		return Fibonacci{N: attrs.Count}, nil
	case TypeGeodesic:
		attrs := geodesicAttrs{Subdivisions: 2}
		if err := decodeAttributes(conf.Attributes, &attrs); err != nil {
			return nil, err
		}
		return NewGeodesic(attrs.Subdivisions)
	case TypeRandom:
		attrs := countAttrs{Count: DefaultCount}
		if err := decodeAttributes(conf.Attributes, &attrs); err != nil {
			return nil, err
		}
		return Random{N: attrs.Count, Seed: attrs.Seed}, nil
	default:
		return nil, errors.Errorf("unknown sampler type %q", conf.Type)
	}
}

func decodeAttributes(attrs map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(attrs); err != nil {
		return errors.Wrap(err, "error decoding sampler attributes")
	}
	return nil
}
