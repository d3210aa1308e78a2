// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgs

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istvan-fodor/r2a/msgdef"
	"github.com/istvan-fodor/r2a/r2a"
)

const laserScanBundle = `std_msgs/Header header
float32 angle_min
float32 angle_max
float32 angle_increment
float32 time_increment
float32 scan_time
float32 range_min
float32 range_max
float32[] ranges
float32[] intensities
================================================================================
MSG: std_msgs/Header
builtin_interfaces/Time stamp
string frame_id
================================================================================
MSG: builtin_interfaces/Time
int32 sec
uint32 nanosec
`

func TestRegisterAll(t *testing.T) {
	r := NewRegistry()
	names := r.SupportedSchemas()
	assert.Len(t, names, 14)
	assert.Contains(t, names, "sensor_msgs/msg/LaserScan")
	assert.Contains(t, names, "builtin_interfaces/msg/Duration")

	// Registering twice is idempotent for the same Go types.
	require.NoError(t, Register(r))
}

func TestLaserScanMatchesDefinition(t *testing.T) {
	goSchema, err := NewRegistry().SchemaFor("sensor_msgs/msg/LaserScan")
	require.NoError(t, err)

	defs, err := msgdef.ParseBundle("sensor_msgs/msg/LaserScan", laserScanBundle)
	require.NoError(t, err)
	dr := r2a.NewRegistry()
	require.NoError(t, dr.RegisterDefinitions(defs...))
	defSchema, err := dr.SchemaFor("sensor_msgs/msg/LaserScan")
	require.NoError(t, err)

	require.Equal(t, defSchema.FlatFieldNames(), goSchema.FlatFieldNames())
	for _, name := range goSchema.FlatFieldNames() {
		gp, err := goSchema.Lookup(name)
		require.NoError(t, err)
		dp, err := defSchema.Lookup(name)
		require.NoError(t, err)
		g, d := gp[len(gp)-1], dp[len(dp)-1]
		assert.True(t, arrow.TypeEqual(d.Type(), g.Type()), name)
		assert.Equal(t, d.SourceType(), g.SourceType(), name)
	}
}

func TestPointCloud2Columns(t *testing.T) {
	sup, err := r2a.SupportFor[PointCloud2](NewRegistry())
	require.NoError(t, err)

	rb, err := sup.NewRowBuilder("header.frame_id", "fields", "data", "is_dense")
	require.NoError(t, err)
	require.NoError(t, rb.Append(&PointCloud2{
		Header: Header{FrameID: "lidar"},
		Height: 1,
		Width:  2,
		Fields: []PointField{
			{Name: "x", Offset: 0, Datatype: PointFieldFloat32, Count: 1},
			{Name: "y", Offset: 4, Datatype: PointFieldFloat32, Count: 1},
		},
		PointStep: 8,
		RowStep:   16,
		Data:      make([]byte, 16),
		IsDense:   true,
	}))

	cols, err := rb.Finalize()
	require.NoError(t, err)
	defer r2a.ReleaseColumns(cols)

	fields := cols[1].Array.(*array.LargeList)
	names := fields.ListValues().(*array.Struct).Field(0).(*array.String)
	assert.Equal(t, "y", names.Value(1))
	assert.Len(t, cols[2].Array.(*array.LargeBinary).Value(0), 16)
	assert.True(t, cols[3].Array.(*array.Boolean).Value(0))
}

func TestImuCovariance(t *testing.T) {
	s, err := NewRegistry().SchemaFor("sensor_msgs/msg/Imu")
	require.NoError(t, err)
	f, ok := s.FieldByName("orientation_covariance")
	require.True(t, ok)
	assert.True(t, arrow.TypeEqual(arrow.FixedSizeListOf(9, arrow.PrimitiveTypes.Float64), f.Type()))
	assert.Equal(t, "float64[9]", f.SourceType())
}

func TestTimeConversions(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 250, time.UTC)
	assert.Equal(t, Time{Sec: int32(ts.Unix()), Nanosec: 250}, FromTime(ts))
	assert.True(t, ts.Equal(FromTime(ts).Time()))

	d := FromDuration(-1500 * time.Millisecond)
	assert.Equal(t, Duration{Sec: -2, Nanosec: 500_000_000}, d)
	assert.Equal(t, -1500*time.Millisecond, d.Duration())
}
