package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/leggedmpc/control"
	"go.viam.com/leggedmpc/logging"
)

// LinearControllerType is the controller type built from LinearControllerAttributes.
const LinearControllerType = "linear"

// AttributeMap is a loosely typed set of attributes decoded from JSON.
type AttributeMap map[string]interface{}

// An AttributeMapConverter converts an attribute map into a typed configuration.
type AttributeMapConverter func(attributes AttributeMap) (interface{}, error)

// A ControllerConstructor builds a controller from converted attributes.
type ControllerConstructor func(attributes interface{}) (control.Controller, error)

type controllerRegistration struct {
	conv        AttributeMapConverter
	constructor ControllerConstructor
}

var controllerRegistry = map[string]controllerRegistration{}

// RegisterController associates a controller type with a way to convert its attributes and a way
// to build it.
func RegisterController(typ string, conv AttributeMapConverter, constructor ControllerConstructor) {
	if _, ok := controllerRegistry[typ]; ok {
		panic(errors.Errorf("trying to register two controllers with same type %q", typ))
	}
	controllerRegistry[typ] = controllerRegistration{conv: conv, constructor: constructor}
}

func init() {
	RegisterController(LinearControllerType,
		func(attributes AttributeMap) (interface{}, error) {
			return decodeAttributes[LinearControllerAttributes](attributes)
		},
		func(attributes interface{}) (control.Controller, error) {
			conf, ok := attributes.(*LinearControllerAttributes)
			if !ok {
				return nil, errors.Errorf("expected *LinearControllerAttributes but got %T", attributes)
			}
			return conf.Build()
		},
	)
}

func decodeAttributes[T any](attributes AttributeMap) (*T, error) {
	var conf T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &conf, ErrorUnused: true})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "error decoding")
	}
	return &conf, nil
}

// LinearControllerAttributes describe a time-varying affine feedback law. Gains are given per
// sample as rows of the input x state matrix.
type LinearControllerAttributes struct {
	Times       []float64     `json:"times"`
	Feedforward [][]float64   `json:"feedforward"`
	Gains       [][][]float64 `json:"gains"`
	EventTimes  []float64     `json:"event_times,omitempty"`
}

// Build returns the controller.
func (a *LinearControllerAttributes) Build() (*control.LinearController, error) {
	if len(a.Gains) != len(a.Times) {
		return nil, errors.Errorf("got %d gains for %d times", len(a.Gains), len(a.Times))
	}
	gains := make([]*mat.Dense, len(a.Gains))
	for i, rows := range a.Gains {
		if len(rows) == 0 || len(rows[0]) == 0 {
			return nil, errors.Errorf("gain %d is empty", i)
		}
		data := make([]float64, 0, len(rows)*len(rows[0]))
		for r, row := range rows {
			if len(row) != len(rows[0]) {
				return nil, errors.Errorf("gain %d row %d has %d columns, expected %d", i, r, len(row), len(rows[0]))
			}
			data = append(data, row...)
		}
		gains[i] = mat.NewDense(len(rows), len(rows[0]), data)
	}
	return control.NewLinearController(a.Times, a.Feedforward, gains, a.EventTimes)
}

// ReferenceConfig is the input reference used to compensate off-segment dispatch.
type ReferenceConfig struct {
	Times  []float64   `json:"times,omitempty"`
	Inputs [][]float64 `json:"inputs,omitempty"`
}

// ControllerConfig selects a controller type and carries its attributes.
type ControllerConfig struct {
	Type       string          `json:"type"`
	Attributes AttributeMap    `json:"attributes,omitempty"`
	Reference  ReferenceConfig `json:"reference"`
}

// Validate ensures the controller type is known, its attributes convert and the reference is
// well formed.
func (c *ControllerConfig) Validate(path string) error {
	if c.Type == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	}
	if _, err := c.convert(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := control.NewInputReference(c.Reference.Times, c.Reference.Inputs); err != nil {
		return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "reference"), err)
	}
	return nil
}

func (c *ControllerConfig) convert() (interface{}, error) {
	reg, ok := controllerRegistry[c.Type]
	if !ok {
		return nil, errors.Errorf("unknown controller type %q", c.Type)
	}
	return reg.conv(c.Attributes)
}

// Build constructs the controller.
func (c *ControllerConfig) Build() (control.Controller, error) {
	attributes, err := c.convert()
	if err != nil {
		return nil, err
	}
	return controllerRegistry[c.Type].constructor(attributes)
}

// BuildDispatcher constructs the controller and wraps it in a mode indexed dispatcher using the
// configured reference.
func (c *ControllerConfig) BuildDispatcher(logger logging.Logger) (*control.ModeIndexedController, error) {
	ctrl, err := c.Build()
	if err != nil {
		return nil, err
	}
	reference, err := control.NewInputReference(c.Reference.Times, c.Reference.Inputs)
	if err != nil {
		return nil, errors.Wrap(err, "input reference")
	}
	return control.NewModeIndexedController(ctrl, reference, logger)
}
