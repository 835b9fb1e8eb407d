package panels

import (
	"context"
	"fmt"
	"time"

	"sysmon/internal/models"
	"sysmon/internal/services"
	"sysmon/internal/ui"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	DiskPageName  = "Disks"
	DiskPageTitle = "Disks"

	firstRowMargin = 8
	rowMargin      = 20
)

// DefaultPollTimeout bounds a single disk re-poll triggered by the refresh button
const DefaultPollTimeout = 5 * time.Second

// DiskRow is the display state of one mount point
type DiskRow struct {
	Label      *ui.Label
	Progress   *ui.ProgressBar
	MountPoint string
	seen       bool
}

// DiskPanel lists mounted disks with their usage. It is owned by the UI loop.
type DiskPanel struct {
	sys         *services.SystemInfo
	container   *ui.Box
	rows        []*DiskRow
	refresh     *ui.Button
	pollTimeout time.Duration
}

// CreateDiskPanel builds the disk page, registers it on stack and renders
// the snapshot sys already holds.
func CreateDiskPanel(sys *services.SystemInfo, stack *ui.Stack) *DiskPanel {
	p := &DiskPanel{
		sys:         sys,
		container:   ui.NewBox(0),
		pollTimeout: DefaultPollTimeout,
	}

	layout := ui.NewBox(0)
	scroll := ui.NewScrolledWindow()
	scroll.SetChild(p.container)
	scroll.SetHExpand(true)
	scroll.SetVExpand(true)

	p.refresh = ui.NewButton("Refresh disks")
	p.refresh.ConnectClicked(p.Refresh)

	layout.Append(scroll)
	layout.Append(p.refresh)
	stack.AddTitled(layout, DiskPageName, DiskPageTitle)

	p.Reconcile(sys.Snapshot())
	return p
}

// SetPollTimeout changes the timeout applied to each re-poll
func (p *DiskPanel) SetPollTimeout(d time.Duration) {
	if d > 0 {
		p.pollTimeout = d
	}
}

// RefreshButton returns the button bound to Refresh
func (p *DiskPanel) RefreshButton() *ui.Button {
	return p.refresh
}

// Rows returns the current rows in display order
func (p *DiskPanel) Rows() []*DiskRow {
	return p.rows
}

// Refresh re-polls the shared handle and reconciles against the new snapshot.
// A failed poll is logged and the previous snapshot is shown again.
func (p *DiskPanel) Refresh() {
	p.Reconcile(p.poll())
}

func (p *DiskPanel) poll() []models.Disk {
	ctx, cancel := context.WithTimeout(context.Background(), p.pollTimeout)
	defer cancel()

	p.sys.Lock()
	defer p.sys.Unlock()

	if err := p.sys.RefreshDisks(ctx); err != nil {
		logrus.WithField("component", "disks").Errorf("Refresh failed: %v", err)
	}
	return p.sys.Disks()
}

// Reconcile aligns the rows with disks: matching mount points are updated in
// place, new ones are appended and missing ones are removed.
func (p *DiskPanel) Reconcile(disks []models.Disk) {
	for _, d := range disks {
		row := p.find(d.MountPoint)
		if row == nil {
			row = p.addRow(d.MountPoint)
		}
		row.update(d)
	}

	kept := p.rows[:0]
	for _, row := range p.rows {
		if !row.seen {
			p.container.Remove(row.Label)
			p.container.Remove(row.Progress)
			continue
		}
		row.seen = false
		kept = append(kept, row)
	}
	for i := len(kept); i < len(p.rows); i++ {
		p.rows[i] = nil
	}
	p.rows = kept
}

func (p *DiskPanel) find(mountPoint string) *DiskRow {
	for _, row := range p.rows {
		if row.MountPoint == mountPoint {
			return row
		}
	}
	return nil
}

func (p *DiskPanel) addRow(mountPoint string) *DiskRow {
	margin := rowMargin
	if len(p.rows) == 0 {
		margin = firstRowMargin
	}

	row := &DiskRow{
		Label:      ui.NewLabel(margin),
		Progress:   ui.NewProgressBar(),
		MountPoint: mountPoint,
	}
	row.Progress.SetShowText(true)

	p.container.Append(row.Label)
	p.container.Append(row.Progress)
	p.rows = append(p.rows, row)
	return row
}

func (r *DiskRow) update(d models.Disk) {
	r.Label.SetText(fmt.Sprintf("%s mounted on \"%s\"", d.Name, r.MountPoint))
	r.Progress.SetText(fmt.Sprintf("%s / %s", humanize.Bytes(d.Used()), humanize.Bytes(d.Total)))
	r.Progress.SetFraction(d.UsedFraction())
	r.seen = true
}
