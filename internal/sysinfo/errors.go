package sysinfo

import "codeberg.org/mutker/hostwatch/internal/errors"

const (
	// Sampling errors
	ErrCPUTimesFailed    = errors.ErrorCode("sysinfo_cpu_times_failed")
	ErrMemoryReadFailed  = errors.ErrorCode("sysinfo_memory_read_failed")
	ErrSensorsListFailed = errors.ErrorCode("sysinfo_sensors_list_failed")
	ErrCoreCountChanged  = errors.ErrorCode("sysinfo_core_count_changed")

	// Inventory errors
	ErrHostInfoFailed      = errors.ErrorCode("sysinfo_host_info_failed")
	ErrCPUInfoFailed       = errors.ErrorCode("sysinfo_cpu_info_failed")
	ErrPhysicalCoresFailed = errors.ErrorCode("sysinfo_physical_cores_failed")
)
