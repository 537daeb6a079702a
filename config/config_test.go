package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/leggedmpc/control"
	"go.viam.com/leggedmpc/footplanner"
	"go.viam.com/leggedmpc/logging"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	swing, err := cfg.Swing.Build()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, swing.StartTime(), test.ShouldEqual, 0.0)
	test.That(t, swing.EndTime(), test.ShouldEqual, 0.4)

	dispatcher, err := cfg.Controller.BuildDispatcher(logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dispatcher.EventTimes(), test.ShouldResemble, []float64{0.4, 0.8, 1.2, 1.6})
	u, err := dispatcher.ComputeInput(1, control.State{Continuous: []float64{0.5}, Mode: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, u[0], test.ShouldAlmostEqual, 0.5-0.5)

	schedule, err := cfg.Planner.Schedule()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, schedule.Validate(), test.ShouldBeNil)
}

func TestConfigValidationPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Swing.Touchdown.Time = 0
	cfg.Swing.Touchdown.Terrain.Normal = [3]float64{}
	cfg.Planner.GaitPeriod = 0
	cfg.Planner.Profile = footplanner.SwingProfile{Nodes: []footplanner.SwingProfileNode{{Phase: 1.5}}}
	cfg.Controller.Type = ""
	cfg.Loop.Frequency = 5000

	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	errs := multierr.Errors(err)
	var messages []string
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	joined := strings.Join(messages, "\n")
	test.That(t, joined, test.ShouldContainSubstring, `"swing"`)
	test.That(t, joined, test.ShouldContainSubstring, "liftoff time 0 must precede touchdown time 0")
	test.That(t, joined, test.ShouldContainSubstring, `"planner"`)
	test.That(t, joined, test.ShouldContainSubstring, "gait_period")
	test.That(t, joined, test.ShouldContainSubstring, `"planner.profile"`)
	test.That(t, joined, test.ShouldContainSubstring, `"controller"`)
	test.That(t, joined, test.ShouldContainSubstring, `"loop"`)
	test.That(t, len(errs), test.ShouldBeGreaterThanOrEqualTo, 5)
}

func TestControllerConfig(t *testing.T) {
	conf := ControllerConfig{Type: "pid"}
	err := conf.Validate("controller")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown controller type "pid"`)

	conf = ControllerConfig{
		Type:       LinearControllerType,
		Attributes: AttributeMap{"times": []float64{0}, "feedforward": [][]float64{{0}}, "gain": 1},
	}
	err = conf.Validate("controller")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "gain")

	conf = ControllerConfig{
		Type: LinearControllerType,
		Attributes: AttributeMap{
			"times":       []interface{}{0.0, 1.0},
			"feedforward": []interface{}{[]interface{}{1.0}, []interface{}{2.0}},
			"gains": []interface{}{
				[]interface{}{[]interface{}{1.0, 0.0}},
				[]interface{}{[]interface{}{0.0, 1.0}},
			},
		},
		Reference: ReferenceConfig{Times: []float64{1, 0}, Inputs: [][]float64{{0}, {0}}},
	}
	err = conf.Validate("controller")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "controller.reference")

	conf.Reference = ReferenceConfig{}
	test.That(t, conf.Validate("controller"), test.ShouldBeNil)
	ctrl, err := conf.Build()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ctrl.Size(), test.ShouldEqual, 2)
	u, err := ctrl.ComputeInput(1, control.State{Continuous: []float64{3, 4}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, u, test.ShouldResemble, []float64{6})
}

func TestLinearControllerAttributesBuild(t *testing.T) {
	_, err := (&LinearControllerAttributes{Times: []float64{0}}).Build()
	test.That(t, err, test.ShouldBeError, "got 0 gains for 1 times")

	_, err = (&LinearControllerAttributes{
		Times:       []float64{0},
		Feedforward: [][]float64{{0, 0}},
		Gains:       [][][]float64{{{1, 2}, {3}}},
	}).Build()
	test.That(t, err, test.ShouldBeError, "gain 0 row 1 has 1 columns, expected 2")
}

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)

	cfg, err := FromReader(strings.NewReader(`{"loop": {"frequency_hz": 250}}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Loop.Frequency, test.ShouldEqual, 250.0)
	test.That(t, cfg.Controller.Type, test.ShouldEqual, LinearControllerType)
	test.That(t, cfg.Planner.GaitPeriod, test.ShouldEqual, 0.8)

	doc := `{
		"swing": {
			"liftoff": {"time": 1, "velocity": 0.1},
			"touchdown": {"time": 1.5, "velocity": -0.1, "terrain": {"position": [0, 0, 0.2]}},
			"profile": {"nodes": [{"phase": 0.5, "swing_height": 0.15}]}
		},
		"controller": {
			"type": "linear",
			"attributes": {"times": [0], "feedforward": [[1]], "gains": [[[2]]]}
		}
	}`
	cfg, err = FromReader(strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Controller.Attributes, test.ShouldNotContainKey, "event_times")
	test.That(t, cfg.Controller.Reference, test.ShouldResemble, ReferenceConfig{})

	swing, err := cfg.Swing.Build()
	test.That(t, err, test.ShouldBeNil)
	height, err := swing.DesiredHeight(1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, height, test.ShouldAlmostEqual, 0.2)
	height, err = swing.DesiredHeight(1.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, height, test.ShouldAlmostEqual, 0.25)

	_, err = FromReader(strings.NewReader(`{"loop": {"frequency_hz": 0}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader(strings.NewReader(`{`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config from json")
}

func TestFromReaderSectionsIndependent(t *testing.T) {
	logger := logging.NewTestLogger(t)
	defaultHeight := footplanner.DefaultSwingProfileNode().SwingHeight

	doc := `{"swing": {"profile": {"nodes": [{"phase": 0.3, "swing_height": 0.25}]}}}`
	cfg, err := FromReader(strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Swing.Profile.Nodes[0].SwingHeight, test.ShouldEqual, 0.25)
	test.That(t, cfg.Planner.Profile.Nodes, test.ShouldHaveLength, 1)
	test.That(t, cfg.Planner.Profile.Nodes[0].SwingHeight, test.ShouldEqual, defaultHeight)
	test.That(t, cfg.Planner.Profile.Nodes[0].Phase, test.ShouldEqual, 0.5)

	doc = `{"planner": {"gait_period": 0.8, "horizon": 2, "profile": {"nodes": [{"phase": 0.4, "swing_height": 0.05}]}}}`
	cfg, err = FromReader(strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Planner.Profile.Nodes[0].SwingHeight, test.ShouldEqual, 0.05)
	test.That(t, cfg.Swing.Profile.Nodes[0].SwingHeight, test.ShouldEqual, defaultHeight)

	fresh := DefaultConfig()
	test.That(t, fresh.Swing.Profile.Nodes[0].SwingHeight, test.ShouldEqual, defaultHeight)
	test.That(t, fresh.Planner.Profile.Nodes[0].SwingHeight, test.ShouldEqual, defaultHeight)
}

func TestRead(t *testing.T) {
	t.Setenv("SWINGPLAN_LOOP_HZ", "40")
	path := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(path, []byte(`{"loop": {"frequency_hz": ${SWINGPLAN_LOOP_HZ}}}`), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Loop.Frequency, test.ShouldEqual, 40.0)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	test.That(t, err, test.ShouldBeNil)
	var doc map[string]interface{}
	test.That(t, json.Unmarshal(schema, &doc), test.ShouldBeNil)
	test.That(t, string(schema), test.ShouldContainSubstring, "frequency_hz")
	test.That(t, string(schema), test.ShouldContainSubstring, "swing_height")
}
