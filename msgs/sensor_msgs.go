// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgs

// LaserScan is a single scan from a planar laser range-finder.
type LaserScan struct {
	Header         Header
	AngleMin       float32
	AngleMax       float32
	AngleIncrement float32
	TimeIncrement  float32
	ScanTime       float32
	RangeMin       float32
	RangeMax       float32
	Ranges         []float32
	Intensities    []float32
}

func (LaserScan) MessageType() string { return "sensor_msgs/msg/LaserScan" }

// PointField datatypes.
const (
	PointFieldInt8    uint8 = 1
	PointFieldUint8   uint8 = 2
	PointFieldInt16   uint8 = 3
	PointFieldUint16  uint8 = 4
	PointFieldInt32   uint8 = 5
	PointFieldUint32  uint8 = 6
	PointFieldFloat32 uint8 = 7
	PointFieldFloat64 uint8 = 8
)

// PointField describes one channel of a PointCloud2 point.
type PointField struct {
	Name     string
	Offset   uint32
	Datatype uint8
	Count    uint32
}

func (PointField) MessageType() string { return "sensor_msgs/msg/PointField" }

// PointCloud2 is a collection of N-dimensional points packed into Data.
type PointCloud2 struct {
	Header      Header
	Height      uint32
	Width       uint32
	Fields      []PointField
	IsBigendian bool
	PointStep   uint32
	RowStep     uint32
	Data        []byte
	IsDense     bool
}

func (PointCloud2) MessageType() string { return "sensor_msgs/msg/PointCloud2" }

type Imu struct {
	Header                       Header
	Orientation                  Quaternion
	OrientationCovariance        [9]float64
	AngularVelocity              Vector3
	AngularVelocityCovariance    [9]float64
	LinearAcceleration           Vector3
	LinearAccelerationCovariance [9]float64
}

func (Imu) MessageType() string { return "sensor_msgs/msg/Imu" }

// NavSatStatus values.
const (
	StatusNoFix int8 = -1
	StatusFix   int8 = 0
	StatusSBAS  int8 = 1
	StatusGBAS  int8 = 2

	ServiceGPS     uint16 = 1
	ServiceGLONASS uint16 = 2
	ServiceCompass uint16 = 4
	ServiceGalileo uint16 = 8
)

type NavSatStatus struct {
	Status  int8
	Service uint16
}

func (NavSatStatus) MessageType() string { return "sensor_msgs/msg/NavSatStatus" }

// Position covariance types of NavSatFix.
const (
	CovarianceTypeUnknown       uint8 = 0
	CovarianceTypeApproximated  uint8 = 1
	CovarianceTypeDiagonalKnown uint8 = 2
	CovarianceTypeKnown         uint8 = 3
)

// NavSatFix is a global navigation satellite fix.
type NavSatFix struct {
	Header                 Header
	Status                 NavSatStatus
	Latitude               float64
	Longitude              float64
	Altitude               float64
	PositionCovariance     [9]float64
	PositionCovarianceType uint8
}

func (NavSatFix) MessageType() string { return "sensor_msgs/msg/NavSatFix" }
