// Package sensor defines the sample and window types flowing through the
// pipeline, together with the collaborator interfaces for the glove's finger
// and inertial sensors. Drivers live outside this module; the pipeline only
// depends on the contracts here and treats an absent collaborator as a valid,
// degraded state.
package sensor

import "math"

// WindowSize is the number of samples in one classifier window.
const WindowSize = 25

// Sample is a single reading across both sensor subsystems, produced once per
// sampling tick. Samples are value types and are copied onto channels;
// a sample is immutable after the sampler builds it.
type Sample struct {
	TimestampMS uint32

	// Flex holds the five normalized finger bend values in [0,1],
	// pinky first, thumb last.
	Flex [5]float32

	// Accel and Gyro are raw readings (m/s^2 and rad/s).
	Accel [3]float32
	Gyro  [3]float32

	// AccelNorm and GyroNorm are the normalized readings the classifier
	// consumes.
	AccelNorm [3]float32
	GyroNorm  [3]float32

	// IMUValid and FingersValid report whether the corresponding subsystem
	// produced this tick's values. Consumers must check these before using
	// the fields; zero values with a false flag mean the subsystem was
	// absent or suppressed, not that the hand was still.
	IMUValid     bool
	FingersValid bool
}

// Window is a fixed-size sequence of samples, oldest to newest, fed to the
// classifier as one unit. Windows are value types so that publishing one is
// an atomic wholesale replace.
type Window [WindowSize]Sample

// FlexReader is the finger-sensor collaborator. Implementations surface no
// errors; an uncalibrated sensor returns stale or default values.
type FlexReader interface {
	// UpdateAll refreshes all five channels from the hardware.
	UpdateAll()
	// NormalizedValues returns the current bend values in [0,1].
	NormalizedValues() [5]float32
	// Angles returns the raw joint angles in degrees.
	Angles() [5]float32
	// Calibrated reports whether a calibration routine has completed.
	Calibrated() bool
	// Calibrate runs the interactive calibration routine.
	Calibrate() error
}

// IMU is the inertial-sensor collaborator.
type IMU interface {
	// Update refreshes the register shadow from the hardware.
	Update() error
	// Accel returns acceleration in m/s^2.
	Accel() [3]float32
	// Gyro returns angular rate in rad/s.
	Gyro() [3]float32
	// NormalizedReadings returns the calibrated normalized values.
	// Only meaningful when Calibrated is true.
	NormalizedReadings() (accel, gyro [3]float32)
	// Calibrated reports whether the orientation filter has converged.
	Calibrated() bool
	// Calibrate runs the stationary calibration routine.
	Calibrate() error
}

// Bus is the shared sensor bus. Audio playback disrupts it, so the speech and
// playback tasks reinitialize it after every session.
type Bus interface {
	Reinit() error
}

// NopBus is a Bus for hosts whose sensor transport needs no recovery.
type NopBus struct{}

func (NopBus) Reinit() error { return nil }

// GyroMagnitude returns the magnitude of the sample's angular-rate vector.
func GyroMagnitude(s Sample) float32 {
	return float32(math.Sqrt(float64(
		s.Gyro[0]*s.Gyro[0] + s.Gyro[1]*s.Gyro[1] + s.Gyro[2]*s.Gyro[2])))
}
