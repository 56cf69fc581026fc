// Package report reconciles LVM topology metadata into a human-readable
// inventory report. The report captures enough identity and ordering
// information about the physical volumes of each volume group to let an
// administrator reconstruct the group after drive reordering or hardware
// replacement.
//
// Known limitation: logical volumes are associated with physical volumes by
// case-sensitive containment of the PV's raw path inside the LV's reported
// devices string, with a path-boundary check so /dev/sda does not claim
// /dev/sda1. The association is textual, taken from the devices column as
// reported, and is not validated against LVM's extent mappings.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peepdrive/peepdrive/internal/lvm"
)

// Querier provides the LVM metadata rows the report is assembled from.
type Querier interface {
	VolumeGroups(name string) ([]lvm.VolumeGroup, error)
	PhysicalVolumes() ([]lvm.PhysicalVolume, error)
	LogicalVolumes() ([]lvm.LogicalVolume, error)
	MetadataDevices(vgName string) ([]string, error)
}

// DeviceResolver provides block-device path and size lookups.
type DeviceResolver interface {
	Canonical(device string) string
	SizeBytes(device string) string
}

// OrderTier records which source produced a volume group's PV ordering.
type OrderTier int

const (
	// TierNone means neither source yielded any PVs.
	TierNone OrderTier = iota

	// TierAuthoritative means the order came from the VG metadata backup.
	TierAuthoritative

	// TierFallback means the order came from the pvs listing. This order
	// carries no guarantee: it is whatever pvs happened to return.
	TierFallback
)

func (t OrderTier) String() string {
	switch t {
	case TierAuthoritative:
		return "authoritative"
	case TierFallback:
		return "fallback"
	default:
		return "none"
	}
}

// PVOrder is the resolved physical volume ordering for one volume group.
type PVOrder struct {
	Tier    OrderTier
	Devices []string
}

// VGSummary describes one volume group as rendered.
type VGSummary struct {
	Name      string
	Tier      OrderTier
	PVCount   int
	LVCount   int
	SizeBytes uint64
}

// Summary describes a completed report run.
type Summary struct {
	Lines int
	VGs   []VGSummary
}

// PVCount returns the total physical volumes across all rendered groups.
func (s Summary) PVCount() int {
	n := 0
	for _, vg := range s.VGs {
		n += vg.PVCount
	}
	return n
}

// LVCount returns the total logical volumes across all rendered groups.
func (s Summary) LVCount() int {
	n := 0
	for _, vg := range s.VGs {
		n += vg.LVCount
	}
	return n
}

// Generator assembles and renders topology reports. Hostname and Now are
// fixed at construction so report content is deterministic for a given
// system state.
type Generator struct {
	LVM      Querier
	Devices  DeviceResolver
	Hostname string

	// Now overrides the report timestamp; nil means time.Now.
	Now func() time.Time
}

// WriteFile generates a report and writes it to path, overwriting any
// existing file. vgFilter restricts the report to one volume group when
// non-empty.
func (g *Generator) WriteFile(vgFilter, path string) (Summary, error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("cannot create report file: %w", err)
	}

	sum, err := g.Generate(vgFilter, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("cannot write report file: %w", cerr)
	}
	return sum, err
}

// Generate writes a report for the selected volume groups to w. Per-entity
// lookup failures degrade to placeholder text; only write failures are
// returned as errors.
func (g *Generator) Generate(vgFilter string, w io.Writer) (Summary, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	stamp := now().UTC().Format(time.RFC3339)

	lw := &lineWriter{w: w}
	lw.line("Report generated: %s", stamp)
	lw.line("Hostname: %s", g.Hostname)
	lw.line("%s", strings.Repeat("=", 80))

	// A failed VG query renders the same as an empty one: the notice below
	// is the report's record of "found nothing or could not look".
	vgs, err := g.LVM.VolumeGroups(vgFilter)
	if err != nil {
		vgs = nil
	}

	sum := Summary{}
	if len(vgs) == 0 {
		lw.line("")
		lw.line("No volume groups found or accessible.")
		sum.Lines = lw.n
		return sum, lw.err
	}

	for _, vg := range vgs {
		vgSum := g.renderVG(lw, vg, stamp)
		sum.VGs = append(sum.VGs, vgSum)
	}

	sum.Lines = lw.n
	return sum, lw.err
}

func (g *Generator) renderVG(lw *lineWriter, vg lvm.VolumeGroup, stamp string) VGSummary {
	lw.line("")
	lw.line("%s", strings.Repeat("#", 80))
	lw.line("VG: %s", vg.Name)
	lw.line("%s", strings.Repeat("#", 80))
	lw.line("  UUID: %s", orUnknown(vg.UUID))
	lw.line("  Size: %s", GiBString(vg.Size))
	lw.line("  Report time (UTC): %s", stamp)

	// PVs and LVs are queried fresh for each group; per-group failures
	// degrade to empty listings.
	pvs, err := g.LVM.PhysicalVolumes()
	if err != nil {
		pvs = nil
	}
	lvs, err := g.LVM.LogicalVolumes()
	if err != nil {
		lvs = nil
	}

	order := g.resolvePVOrder(vg.Name, pvs)

	if order.Tier == TierNone {
		lw.line("")
		lw.line("  WARNING: no physical volumes could be resolved for this volume group.")
	} else {
		lw.line("")
		lw.line("  Physical volumes (in VG metadata order):")

		summary := make([]string, 0, len(order.Devices))
		for i, dev := range order.Devices {
			lw.line("    %d) %s", i+1, dev)
			lw.line("       Canonical: %s", g.Devices.Canonical(dev))
			lw.line("       UUID: %s", pvUUID(pvs, dev))
			lw.line("       Size: %s", GiBString(g.Devices.SizeBytes(dev)))
			lw.line("       LVs: %s", lvNamesOn(lvs, vg.Name, dev))
			summary = append(summary, fmt.Sprintf("%d: %s", i+1, dev))
		}

		lw.line("  PV order summary: %s", strings.Join(summary, ", "))
		lw.line("  Flow: %s -> %s", vg.Name, strings.Join(order.Devices, " -> "))
	}

	lw.line("")
	lw.line("  Logical volumes in %s:", vg.Name)

	lvCount := 0
	for _, lv := range lvs {
		if !ownedBy(lv.VGName, vg.Name) {
			continue
		}
		lvCount++
		lw.line("    - %s", lv.Name)
		lw.line("       UUID: %s", orUnknown(lv.UUID))
		lw.line("       Size: %s", GiBString(lv.Size))
	}

	return VGSummary{
		Name:      vg.Name,
		Tier:      order.Tier,
		PVCount:   len(order.Devices),
		LVCount:   lvCount,
		SizeBytes: parseBytes(vg.Size),
	}
}

// resolvePVOrder applies the two-tier ordering strategy: the VG metadata
// backup first, then the pvs listing filtered by owning group.
func (g *Generator) resolvePVOrder(vgName string, pvs []lvm.PhysicalVolume) PVOrder {
	devices, err := g.LVM.MetadataDevices(vgName)
	if err == nil && len(devices) > 0 {
		return PVOrder{Tier: TierAuthoritative, Devices: devices}
	}

	var fallback []string
	for _, pv := range pvs {
		if ownedBy(pv.VGName, vgName) {
			fallback = append(fallback, pv.Name)
		}
	}
	if len(fallback) > 0 {
		return PVOrder{Tier: TierFallback, Devices: fallback}
	}

	return PVOrder{Tier: TierNone}
}

// ownedBy reports whether an entity's owning-VG field names vgName, tolerating
// surrounding whitespace from the metadata source.
func ownedBy(owner, vgName string) bool {
	return strings.TrimSpace(owner) == strings.TrimSpace(vgName)
}

// pvUUID looks up a PV's UUID by exact device name.
func pvUUID(pvs []lvm.PhysicalVolume, device string) string {
	for _, pv := range pvs {
		if pv.Name == device {
			return orUnknown(pv.UUID)
		}
	}
	return "unknown"
}

// lvNamesOn lists the LVs of a volume group whose devices string contains the
// PV's raw path. Substring containment, not extent mapping; see the package
// comment for the caveat.
func lvNamesOn(lvs []lvm.LogicalVolume, vgName, device string) string {
	var names []string
	for _, lv := range lvs {
		if ownedBy(lv.VGName, vgName) && containsDevice(lv.Devices, device) {
			names = append(names, lv.Name)
		}
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

// containsDevice reports whether the devices string names device. The match
// is case-sensitive containment that must end at a path boundary, so that
// /dev/sda does not claim an LV living on /dev/sda1.
func containsDevice(devices, device string) bool {
	if device == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(devices[i:], device)
		if j < 0 {
			return false
		}
		end := i + j + len(device)
		if end == len(devices) || !isPathChar(devices[end]) {
			return true
		}
		i = i + j + 1
	}
}

func isPathChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_'
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

// lineWriter counts written lines and latches the first write error so
// rendering can proceed without per-line error plumbing.
type lineWriter struct {
	w   io.Writer
	n   int
	err error
}

func (lw *lineWriter) line(format string, args ...interface{}) {
	if lw.err != nil {
		return
	}
	if _, err := fmt.Fprintf(lw.w, format+"\n", args...); err != nil {
		lw.err = fmt.Errorf("cannot write report: %w", err)
		return
	}
	lw.n++
}
