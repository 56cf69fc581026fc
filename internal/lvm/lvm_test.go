package lvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClient(out string, err error) *Client {
	return &Client{
		exec: func(name string, arg ...string) ([]byte, error) {
			return []byte(out), err
		},
	}
}

func TestVolumeGroupsParse(t *testing.T) {
	c := stubClient(`{"report": [{"vg": [
		{"vg_name": "vg0", "vg_uuid": "pB0WKT-WukN-IAjl-Q1Lr-bLmH-Xh5x-In0V5e", "vg_size": "10737418240"},
		{"vg_name": "data", "vg_uuid": "Gf0GD0-hH0M-7x8i-9LQt-AAZm-ke5b-VfWlGR", "vg_size": "55029268480"}
	]}]}`, nil)

	vgs, err := c.VolumeGroups("")
	require.NoError(t, err)
	assert.Equal(t, []VolumeGroup{
		{Name: "vg0", UUID: "pB0WKT-WukN-IAjl-Q1Lr-bLmH-Xh5x-In0V5e", Size: "10737418240"},
		{Name: "data", UUID: "Gf0GD0-hH0M-7x8i-9LQt-AAZm-ke5b-VfWlGR", Size: "55029268480"},
	}, vgs)
}

func TestVolumeGroupsUnknownNameIsNotAnError(t *testing.T) {
	c := stubClient("", errors.New("exit status 5"))

	vgs, err := c.VolumeGroups("nosuchvg")
	require.NoError(t, err)
	assert.Empty(t, vgs)
}

func TestVolumeGroupsUnfilteredFailure(t *testing.T) {
	c := stubClient("", errors.New("exit status 5"))

	_, err := c.VolumeGroups("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vgs query failed")
}

func TestPhysicalVolumesParse(t *testing.T) {
	c := stubClient(`{"report": [{"pv": [
		{"pv_name": "/dev/sda1", "pv_uuid": "P1", "vg_name": "vg0", "pv_size": "5368709120"}
	]}]}`, nil)

	pvs, err := c.PhysicalVolumes()
	require.NoError(t, err)
	assert.Equal(t, []PhysicalVolume{
		{Name: "/dev/sda1", UUID: "P1", VGName: "vg0", Size: "5368709120"},
	}, pvs)
}

func TestLogicalVolumesParse(t *testing.T) {
	c := stubClient(`{"report": [{"lv": [
		{"lv_name": "lv0", "lv_uuid": "U2", "vg_name": "vg0", "lv_size": "2147483648", "devices": "/dev/sda1(0)"}
	]}]}`, nil)

	lvs, err := c.LogicalVolumes()
	require.NoError(t, err)
	assert.Equal(t, []LogicalVolume{
		{Name: "lv0", UUID: "U2", VGName: "vg0", Size: "2147483648", Devices: "/dev/sda1(0)"},
	}, lvs)
}

func TestParseMalformedOutput(t *testing.T) {
	c := stubClient(`not json`, nil)

	_, err := c.PhysicalVolumes()
	require.Error(t, err)

	_, err = c.LogicalVolumes()
	require.Error(t, err)
}
