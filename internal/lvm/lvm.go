// Package lvm queries LVM metadata through the lvs/pvs/vgs report commands
// and the volume group metadata backup. All queries are read-only: nothing
// in this package ever alters LVM state.
package lvm

import (
	"encoding/json"
	"os/exec"

	"github.com/pkg/errors"
)

// VolumeGroup is one row of the vgs report.
type VolumeGroup struct {
	Name string
	UUID string
	Size string // raw byte count as reported
}

// PhysicalVolume is one row of the pvs report.
type PhysicalVolume struct {
	Name   string // device path as reported by LVM
	UUID   string
	VGName string
	Size   string
}

// LogicalVolume is one row of the lvs report.
type LogicalVolume struct {
	Name    string
	UUID    string
	VGName  string
	Size    string
	Devices string // device association string, e.g. "/dev/sda1(0)"
}

// RequiredTools are the commands that must be present before any query runs.
// vgcfgbackup is deliberately not listed: its absence only disables the
// authoritative PV-order tier.
var RequiredTools = []string{"vgs", "pvs", "lvs"}

// CheckTools verifies the required LVM report commands are on PATH.
func CheckTools() error {
	for _, tool := range RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			return errors.Wrapf(err, "required command %q not found", tool)
		}
	}
	return nil
}

// Client runs the LVM report commands and parses their JSON output into
// fixed-field records.
type Client struct {
	exec func(name string, arg ...string) ([]byte, error)
}

// NewClient returns a Client backed by the system's LVM commands.
func NewClient() *Client {
	return &Client{
		exec: func(name string, arg ...string) ([]byte, error) {
			return exec.Command(name, arg...).Output()
		},
	}
}

// vgsOutput represents vgs JSON output
type vgsOutput struct {
	Report []struct {
		VG []struct {
			Name string `json:"vg_name"`
			UUID string `json:"vg_uuid"`
			Size string `json:"vg_size"`
		} `json:"vg"`
	} `json:"report"`
}

// pvsOutput represents pvs JSON output
type pvsOutput struct {
	Report []struct {
		PV []struct {
			Name   string `json:"pv_name"`
			UUID   string `json:"pv_uuid"`
			VGName string `json:"vg_name"`
			Size   string `json:"pv_size"`
		} `json:"pv"`
	} `json:"report"`
}

// lvsOutput represents lvs JSON output
type lvsOutput struct {
	Report []struct {
		LV []struct {
			Name    string `json:"lv_name"`
			UUID    string `json:"lv_uuid"`
			VGName  string `json:"vg_name"`
			Size    string `json:"lv_size"`
			Devices string `json:"devices"`
		} `json:"lv"`
	} `json:"report"`
}

var reportArgs = []string{"--reportformat", "json", "--units", "b", "--nosuffix"}

// VolumeGroups lists volume groups. When name is non-empty the listing is
// restricted to that group; a name that matches nothing returns an empty
// slice and no error, since vgs reports unknown groups on stderr only after
// a non-zero exit that callers treat as "none accessible".
func (c *Client) VolumeGroups(name string) ([]VolumeGroup, error) {
	args := append([]string{"-o", "vg_name,vg_uuid,vg_size"}, reportArgs...)
	if name != "" {
		args = append(args, name)
	}

	out, err := c.exec("vgs", args...)
	if err != nil {
		if name != "" {
			// Unknown VG name: not an error, the report carries the notice.
			return nil, nil
		}
		return nil, errors.Wrap(err, "vgs query failed")
	}

	var report vgsOutput
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, errors.Wrap(err, "vgs output not parseable")
	}

	var vgs []VolumeGroup
	for _, r := range report.Report {
		for _, vg := range r.VG {
			vgs = append(vgs, VolumeGroup{Name: vg.Name, UUID: vg.UUID, Size: vg.Size})
		}
	}
	return vgs, nil
}

// PhysicalVolumes lists all physical volumes known to LVM.
func (c *Client) PhysicalVolumes() ([]PhysicalVolume, error) {
	args := append([]string{"-o", "pv_name,pv_uuid,vg_name,pv_size"}, reportArgs...)

	out, err := c.exec("pvs", args...)
	if err != nil {
		return nil, errors.Wrap(err, "pvs query failed")
	}

	var report pvsOutput
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, errors.Wrap(err, "pvs output not parseable")
	}

	var pvs []PhysicalVolume
	for _, r := range report.Report {
		for _, pv := range r.PV {
			pvs = append(pvs, PhysicalVolume{
				Name:   pv.Name,
				UUID:   pv.UUID,
				VGName: pv.VGName,
				Size:   pv.Size,
			})
		}
	}
	return pvs, nil
}

// LogicalVolumes lists all logical volumes known to LVM, including the
// devices column that names the PVs each LV occupies.
func (c *Client) LogicalVolumes() ([]LogicalVolume, error) {
	args := append([]string{"-o", "lv_name,lv_uuid,vg_name,lv_size,devices"}, reportArgs...)

	out, err := c.exec("lvs", args...)
	if err != nil {
		return nil, errors.Wrap(err, "lvs query failed")
	}

	var report lvsOutput
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, errors.Wrap(err, "lvs output not parseable")
	}

	var lvs []LogicalVolume
	for _, r := range report.Report {
		for _, lv := range r.LV {
			lvs = append(lvs, LogicalVolume{
				Name:    lv.Name,
				UUID:    lv.UUID,
				VGName:  lv.VGName,
				Size:    lv.Size,
				Devices: lv.Devices,
			})
		}
	}
	return lvs, nil
}
