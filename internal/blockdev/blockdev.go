// Package blockdev resolves block device sizes and canonical device paths.
package blockdev

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// CheckTools verifies lsblk is on PATH.
func CheckTools() error {
	if _, err := exec.LookPath("lsblk"); err != nil {
		return errors.Wrap(err, `required command "lsblk" not found`)
	}
	return nil
}

// Resolver looks up device sizes from a single lsblk scan, falling back to
// the BLKGETSIZE64 ioctl for devices lsblk does not list.
type Resolver struct {
	exec    func(name string, arg ...string) ([]byte, error)
	sizes   map[string]string
	scanned bool
}

// NewResolver returns a Resolver backed by lsblk.
func NewResolver() *Resolver {
	return &Resolver{
		exec: func(name string, arg ...string) ([]byte, error) {
			return exec.Command(name, arg...).Output()
		},
	}
}

// lsblkOutput represents the JSON output from lsblk -b
type lsblkOutput struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Path     string        `json:"path"`
	Size     flexNumber    `json:"size"`
	Children []lsblkDevice `json:"children,omitempty"`
}

// flexNumber accepts a JSON number or string: util-linux emitted all lsblk
// JSON values as strings before 2.34.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = flexNumber(s)
		return nil
	}
	if string(b) == "null" {
		*n = ""
		return nil
	}
	*n = flexNumber(b)
	return nil
}

// Canonical resolves a device path to its canonical form, returning the raw
// path unchanged when resolution fails.
func (r *Resolver) Canonical(device string) string {
	if device == "" {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(device)
	if err != nil {
		return device
	}
	return resolved
}

// SizeBytes returns the size of a block device as a decimal byte count
// string, or "0" when the size cannot be determined.
func (r *Resolver) SizeBytes(device string) string {
	if !r.scanned {
		r.scan()
	}

	if size, ok := r.sizes[device]; ok {
		return size
	}
	if size, ok := r.sizes[r.Canonical(device)]; ok {
		return size
	}

	if size, err := ioctlSize(device); err == nil {
		return strconv.FormatUint(size, 10)
	}
	return "0"
}

// scan populates the path->bytes map from one lsblk pass over all devices.
func (r *Resolver) scan() {
	r.scanned = true
	r.sizes = make(map[string]string)

	out, err := r.exec("lsblk", "-J", "-b", "-o", "PATH,SIZE")
	if err != nil {
		return
	}

	var output lsblkOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return
	}

	for _, dev := range output.Blockdevices {
		r.addDevice(dev)
	}
}

func (r *Resolver) addDevice(dev lsblkDevice) {
	if dev.Path != "" && dev.Size != "" {
		r.sizes[dev.Path] = string(dev.Size)
	}
	for _, child := range dev.Children {
		r.addDevice(child)
	}
}

func ioctlSize(device string) (uint64, error) {
	f, err := os.Open(device)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, errors.Wrapf(err, "BLKGETSIZE64 failed for %q", device)
	}
	return uint64(size), nil
}
