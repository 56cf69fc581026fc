package lvm

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

// deviceLine matches the device assignment inside a pv section of a
// vgcfgbackup dump, e.g. `device = "/dev/sda1"`.
var deviceLine = regexp.MustCompile(`(?m)^\s*device\s*=\s*"([^"]+)"`)

// MetadataDevices returns the PV device paths of a volume group in the order
// they occur in the group's backed-up metadata. This is the order LVM itself
// recorded and is the authoritative source for reconstruction.
//
// vgcfgbackup with -f writes only to the named file and never touches LVM
// state on disk.
func (c *Client) MetadataDevices(vgName string) ([]string, error) {
	path, err := exec.LookPath("vgcfgbackup")
	if err != nil {
		return nil, errors.Wrap(err, "vgcfgbackup not available")
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, err
	}
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("peepdrive_vgcfg_%s.txt", hex.EncodeToString(buf[:])))
	defer os.Remove(tmp)

	if err := exec.Command(path, vgName, "-f", tmp).Run(); err != nil {
		return nil, errors.Wrapf(err, "vgcfgbackup failed for %q", vgName)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, err
	}

	return parseBackupDevices(data), nil
}

// parseBackupDevices extracts device paths from a metadata backup dump,
// preserving their order of appearance.
func parseBackupDevices(data []byte) []string {
	var devices []string
	for _, m := range deviceLine.FindAllSubmatch(data, -1) {
		devices = append(devices, string(m[1]))
	}
	return devices
}
