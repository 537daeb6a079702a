package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/leggedmpc/config"
	"go.viam.com/leggedmpc/logging"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	app := NewApp(out, errOut)
	err := app.Run(append([]string{"swingplan"}, args...))
	return out.String(), err
}

func TestConstraintsCommand(t *testing.T) {
	out, err := runApp(t, "constraints", "--samples", "5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "NORMAL VELOCITY")
	// liftoff row of the default swing
	test.That(t, out, test.ShouldContainSubstring, "-0.2000")
	test.That(t, out, test.ShouldContainSubstring, "0.4000")
}

func TestPhasesCommand(t *testing.T) {
	out, err := runApp(t, "phases")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "PEAK CLEARANCE")
	test.That(t, out, test.ShouldContainSubstring, "+Inf")
	test.That(t, out, test.ShouldContainSubstring, "false")
}

func TestDispatchCommand(t *testing.T) {
	out, err := runApp(t, "dispatch", "--mode", "2", "--samples", "3", "--state", "0.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "DISPATCHED INPUT")

	_, err = runApp(t, "dispatch")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "dispatch", "--mode", "0", "--state", "1", "--state", "2")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSampleDispatch(t *testing.T) {
	cfg := config.DefaultConfig()
	rows, err := sampleDispatch(&cfg, 2, []float64{0.5}, 5, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rows, test.ShouldHaveLength, 5)

	// segment 2 is [0.8, 1.2); inside it dispatch matches the raw controller
	test.That(t, rows[2].t, test.ShouldEqual, 1.0)
	test.That(t, rows[2].segment, test.ShouldEqual, 2)
	test.That(t, rows[2].dispatched, test.ShouldResemble, rows[2].raw)

	// the default reference follows the feedforward, so compensation recovers the raw input
	for _, i := range []int{0, 1, 3, 4} {
		test.That(t, rows[i].dispatched[0], test.ShouldAlmostEqual, rows[i].raw[0], 1e-6)
	}
}

func TestPlotCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swing.png")
	out, err := runApp(t, "plot", "--out", path, "--samples", "20")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, path)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}

func TestSchemaCommand(t *testing.T) {
	out, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "frequency_hz")
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"swing": {"liftoff": {"time": 0}, "touchdown": {"time": 0.3}}}`
	test.That(t, os.WriteFile(path, []byte(doc), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "--config", path, "--debug", "constraints", "--samples", "2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "0.3000")

	_, err = runApp(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "constraints")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDebugLogsGoToErrWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(path, []byte(`{"loop": {"frequency_hz": 50}}`), 0o600), test.ShouldBeNil)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := NewApp(out, errOut).Run([]string{"swingplan", "--config", path, "--debug", "constraints", "--samples", "2"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut.String(), test.ShouldContainSubstring, "DEBUG\tswingplan\t")
	test.That(t, errOut.String(), test.ShouldContainSubstring, "read config")
	test.That(t, out.String(), test.ShouldNotContainSubstring, "read config")

	errOut.Reset()
	err = NewApp(out, errOut).Run([]string{"swingplan", "--config", path, "constraints", "--samples", "2"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut.String(), test.ShouldBeEmpty)
}

func TestSampleTimes(t *testing.T) {
	test.That(t, sampleTimes(0, 1, 3), test.ShouldResemble, []float64{0, 0.5, 1})
	test.That(t, sampleTimes(2, 3, 1), test.ShouldResemble, []float64{2.0})
}
