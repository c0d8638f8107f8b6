package gpu

import (
	"codeberg.org/mutker/hostwatch/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlWrapper drives the process-wide NVML library. NVML reference-counts
// Init and Shutdown, so the wrapper keeps them paired.
type nvmlWrapper struct {
	initialized bool
}

// checkReturn turns a failed NVML return into a coded error.
func checkReturn(code errors.ErrorCode, ret nvml.Return) error {
	if IsNVMLSuccess(ret) {
		return nil
	}

	return errors.New().Wrap(code, newNVMLError(ret))
}

func (w *nvmlWrapper) Initialize() error {
	if w.initialized {
		return nil
	}

	// Init fails with ERROR_LIBRARY_NOT_FOUND on hosts without the driver.
	if err := checkReturn(ErrInitFailed, nvml.Init()); err != nil {
		return err
	}
	w.initialized = true

	return nil
}

func (w *nvmlWrapper) Shutdown() error {
	if !w.initialized {
		return nil
	}
	w.initialized = false

	return checkReturn(ErrShutdownFailed, nvml.Shutdown())
}

func (w *nvmlWrapper) requireInit() error {
	if !w.initialized {
		return errors.New().New(ErrNotInitialized)
	}

	return nil
}

func (w *nvmlWrapper) GetDeviceCount() (int, error) {
	if err := w.requireInit(); err != nil {
		return 0, err
	}

	count, ret := nvml.DeviceGetCount()
	if err := checkReturn(ErrDeviceCountFailed, ret); err != nil {
		return 0, err
	}

	return count, nil
}

func (w *nvmlWrapper) GetDevice(index int) (Device, error) {
	if err := w.requireInit(); err != nil {
		return nil, err
	}

	device, ret := nvml.DeviceGetHandleByIndex(index)
	if err := checkReturn(ErrDeviceNotFound, ret); err != nil {
		return nil, err
	}

	return device, nil
}
