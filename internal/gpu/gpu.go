package gpu

import (
	"context"
	"fmt"
	"math"
	"sync"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/logger"
	"codeberg.org/mutker/hostwatch/internal/sysinfo"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

type sensor struct {
	device Device
	label  string
}

// Sensors reports the core temperature of every NVIDIA GPU as a thermal
// probe. It implements sysinfo.SensorProvider.
type Sensors struct {
	ctrl    nvmlController
	sensors []sensor
	closed  bool
	mu      sync.Mutex
}

var _ sysinfo.SensorProvider = (*Sensors)(nil)

// New initializes NVML and enumerates all GPUs. It fails when the driver
// library is missing or no device is present.
func New() (*Sensors, error) {
	return newSensors(&nvmlWrapper{})
}

func newSensors(ctrl nvmlController) (*Sensors, error) {
	errFactory := errors.New()

	if err := ctrl.Initialize(); err != nil {
		return nil, err
	}

	count, err := ctrl.GetDeviceCount()
	if err != nil {
		shutdownQuietly(ctrl)
		return nil, err
	}
	if count == 0 {
		shutdownQuietly(ctrl)
		return nil, errFactory.New(ErrDeviceNotFound)
	}

	s := &Sensors{ctrl: ctrl}
	for i := 0; i < count; i++ {
		device, err := ctrl.GetDevice(i)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Skipping GPU")
			continue
		}

		name, ret := device.GetName()
		if !IsNVMLSuccess(ret) {
			logger.Debug().
				Err(errFactory.Wrap(ErrDeviceNameFailed, newNVMLError(ret))).
				Int("index", i).
				Msg("GPU name unavailable")
			name = "NVIDIA"
		}

		label := fmt.Sprintf("%s GPU %d", name, i)
		logger.Info().Str("label", label).Msg("Detected GPU")
		s.sensors = append(s.sensors, sensor{device: device, label: label})
	}

	if len(s.sensors) == 0 {
		shutdownQuietly(ctrl)
		return nil, errFactory.New(ErrDeviceNotFound)
	}

	return s, nil
}

// Temperatures reads every GPU in index order. A device that cannot be
// read reports NaN rather than being dropped.
func (s *Sensors) Temperatures(_ context.Context) []sysinfo.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	readings := make([]sysinfo.SensorReading, 0, len(s.sensors))
	for _, sn := range s.sensors {
		value := math.NaN()
		temp, ret := sn.device.GetTemperature(nvml.TEMPERATURE_GPU)
		if IsNVMLSuccess(ret) {
			value = float64(temp)
		} else {
			logger.Debug().
				Err(errors.New().Wrap(ErrTemperatureReadFailed, newNVMLError(ret))).
				Str("label", sn.label).
				Msg("GPU temperature unavailable")
		}

		readings = append(readings, sysinfo.SensorReading{
			Label:       sn.label,
			Temperature: value,
		})
	}

	return readings
}

// Shutdown releases NVML. Later Temperatures calls return nothing.
func (s *Sensors) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.ctrl.Shutdown()
}

func shutdownQuietly(ctrl nvmlController) {
	if err := ctrl.Shutdown(); err != nil {
		logger.Debug().Err(err).Msg("NVML shutdown after failed init")
	}
}
