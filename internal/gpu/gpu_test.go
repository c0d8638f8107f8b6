package gpu

import (
	"context"
	"math"
	"testing"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/sysinfo"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	name    string
	nameRet nvml.Return
	temp    uint32
	tempRet nvml.Return
}

func (d *fakeDevice) GetName() (string, nvml.Return) {
	return d.name, d.nameRet
}

func (d *fakeDevice) GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return) {
	return d.temp, d.tempRet
}

type fakeController struct {
	initErr   error
	devices   []Device
	shutdowns int
}

func (c *fakeController) Initialize() error { return c.initErr }

func (c *fakeController) Shutdown() error {
	c.shutdowns++
	return nil
}

func (c *fakeController) GetDeviceCount() (int, error) { return len(c.devices), nil }

func (c *fakeController) GetDevice(index int) (Device, error) {
	return c.devices[index], nil
}

func TestTemperaturesLabelsDevicesInOrder(t *testing.T) {
	ctrl := &fakeController{devices: []Device{
		&fakeDevice{name: "NVIDIA GeForce RTX 4070", temp: 54},
		&fakeDevice{name: "NVIDIA A2", temp: 41},
	}}

	s, err := newSensors(ctrl)
	require.NoError(t, err)

	assert.Equal(t, []sysinfo.SensorReading{
		{Label: "NVIDIA GeForce RTX 4070 GPU 0", Temperature: 54},
		{Label: "NVIDIA A2 GPU 1", Temperature: 41},
	}, s.Temperatures(context.Background()))
}

func TestUnreadableDeviceReportsNaN(t *testing.T) {
	ctrl := &fakeController{devices: []Device{
		&fakeDevice{nameRet: nvml.ERROR_UNKNOWN, tempRet: nvml.ERROR_GPU_IS_LOST},
	}}

	s, err := newSensors(ctrl)
	require.NoError(t, err)

	got := s.Temperatures(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "NVIDIA GPU 0", got[0].Label)
	assert.True(t, math.IsNaN(got[0].Temperature))
}

func TestNoDevicesFails(t *testing.T) {
	ctrl := &fakeController{}

	_, err := newSensors(ctrl)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrDeviceNotFound))
	assert.Equal(t, 1, ctrl.shutdowns)
}

func TestInitFailurePropagates(t *testing.T) {
	ctrl := &fakeController{initErr: errors.New().Wrap(ErrInitFailed, newNVMLError(nvml.ERROR_LIBRARY_NOT_FOUND))}

	_, err := newSensors(ctrl)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInitFailed))
}

func TestShutdownStopsReadings(t *testing.T) {
	ctrl := &fakeController{devices: []Device{&fakeDevice{name: "GPU", temp: 30}}}

	s, err := newSensors(ctrl)
	require.NoError(t, err)
	require.NoError(t, s.Shutdown())
	require.NoError(t, s.Shutdown())

	assert.Empty(t, s.Temperatures(context.Background()))
	assert.Equal(t, 1, ctrl.shutdowns)
}
