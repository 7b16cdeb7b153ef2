package sensor

// NormParams are z-score normalization parameters. They must match the
// preprocessing used when the classifier model was trained.
type NormParams struct {
	Mean float32
	Std  float32
}

// Fallback normalization parameters for an uncalibrated IMU, one set per
// axis of the acceleration and angular-rate vectors.
var (
	AxParams = NormParams{Mean: 0.652877, Std: 0.246747}
	AyParams = NormParams{Mean: 0.662821, Std: 0.117152}
	AzParams = NormParams{Mean: 0.410897, Std: 0.252453}
	GxParams = NormParams{Mean: 0.504955, Std: 0.301887}
	GyParams = NormParams{Mean: 0.501236, Std: 0.212698}
	GzParams = NormParams{Mean: 0.485134, Std: 0.303284}
)

// Normalize applies z-score normalization to a raw sensor value.
func Normalize(value float32, p NormParams) float32 {
	return (value - p.Mean) / p.Std
}

// NormalizeFallback fills the normalized fields of a sample from its raw
// readings using the static training-set parameters. Used when the IMU has
// not run its calibration routine.
func NormalizeFallback(s *Sample) {
	s.AccelNorm[0] = Normalize(s.Accel[0], AxParams)
	s.AccelNorm[1] = Normalize(s.Accel[1], AyParams)
	s.AccelNorm[2] = Normalize(s.Accel[2], AzParams)
	s.GyroNorm[0] = Normalize(s.Gyro[0], GxParams)
	s.GyroNorm[1] = Normalize(s.Gyro[1], GyParams)
	s.GyroNorm[2] = Normalize(s.Gyro[2], GzParams)
}
