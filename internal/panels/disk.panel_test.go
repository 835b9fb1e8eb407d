package panels

import (
	"context"
	"errors"
	"testing"

	"sysmon/internal/models"
	"sysmon/internal/services"
	"sysmon/internal/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	disks []models.Disk
	err   error
}

func (s *stubSource) Disks(ctx context.Context) ([]models.Disk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.disks, nil
}

func newTestPanel(t *testing.T, initial ...models.Disk) (*DiskPanel, *stubSource, *ui.Stack) {
	t.Helper()
	src := &stubSource{disks: initial}
	sys := services.NewSystemInfo(context.Background(), src)
	stack := ui.NewStack()
	return CreateDiskPanel(sys, stack), src, stack
}

func mountPoints(rows []*DiskRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.MountPoint)
	}
	return out
}

var (
	root = models.Disk{Name: "/dev/sda1", MountPoint: "/", Total: 1000, Available: 400}
	home = models.Disk{Name: "/dev/sda2", MountPoint: "/home", Total: 2000, Available: 500}
)

func TestCreateDiskPanelRegistersPage(t *testing.T) {
	p, _, stack := newTestPanel(t, root)

	pages := stack.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, models.PageInfo{Name: "Disks", Title: "Disks"}, pages[0])

	// initial reconcile uses the snapshot already held
	assert.Equal(t, []string{"/"}, mountPoints(p.Rows()))

	found, err := stack.FindButton(DiskPageName, p.RefreshButton().ID())
	require.NoError(t, err)
	assert.Equal(t, "Refresh disks", found.Label())
}

func TestReconcileAddsRowsInFirstSeenOrder(t *testing.T) {
	p, _, _ := newTestPanel(t)
	require.Empty(t, p.Rows())

	p.Reconcile([]models.Disk{root, home})

	assert.Equal(t, []string{"/", "/home"}, mountPoints(p.Rows()))
	assert.Equal(t, 4, p.container.Len())
	assert.Equal(t, []ui.Widget{
		p.rows[0].Label, p.rows[0].Progress,
		p.rows[1].Label, p.rows[1].Progress,
	}, p.container.Children())
}

func TestReconcileRemovesMissingMounts(t *testing.T) {
	p, _, _ := newTestPanel(t)
	p.Reconcile([]models.Disk{root, home})
	homeRow := p.Rows()[1]

	updated := root
	updated.Available = 100
	p.Reconcile([]models.Disk{updated})

	require.Equal(t, []string{"/"}, mountPoints(p.Rows()))
	assert.Equal(t, 2, p.container.Len())
	assert.NotContains(t, p.container.Children(), ui.Widget(homeRow.Label))
	assert.NotContains(t, p.container.Children(), ui.Widget(homeRow.Progress))
	assert.InDelta(t, 0.9, p.Rows()[0].Progress.Fraction(), 1e-9)
}

func TestReconcileUpdateText(t *testing.T) {
	p, _, _ := newTestPanel(t)

	p.Reconcile([]models.Disk{root})

	row := p.Rows()[0]
	assert.Equal(t, `/dev/sda1 mounted on "/"`, row.Label.Text())
	assert.Equal(t, "600 B / 1.0 kB", row.Progress.Text())
	assert.InDelta(t, 0.6, row.Progress.Fraction(), 1e-9)
	assert.True(t, row.Progress.ShowText())
}

func TestReconcileIsIdempotent(t *testing.T) {
	p, _, stack := newTestPanel(t)
	snapshot := []models.Disk{root, home}

	p.Reconcile(snapshot)
	first, err := stack.RenderPage(DiskPageName)
	require.NoError(t, err)
	rows := append([]*DiskRow(nil), p.Rows()...)

	p.Reconcile(snapshot)
	second, err := stack.RenderPage(DiskPageName)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, p.Rows(), len(rows))
	for i := range rows {
		assert.Same(t, rows[i], p.Rows()[i])
	}
}

func TestReconcileKeysOnMountPoint(t *testing.T) {
	p, _, _ := newTestPanel(t)
	p.Reconcile([]models.Disk{root})
	row := p.Rows()[0]

	renamed := root
	renamed.Name = "/dev/nvme0n1p1"
	p.Reconcile([]models.Disk{renamed})

	require.Len(t, p.Rows(), 1)
	assert.Same(t, row, p.Rows()[0])
	assert.Equal(t, `/dev/nvme0n1p1 mounted on "/"`, row.Label.Text())
}

func TestReconcileEmptyDisk(t *testing.T) {
	p, _, _ := newTestPanel(t)

	p.Reconcile([]models.Disk{{Name: "", MountPoint: "/empty", Total: 0, Available: 0}})

	row := p.Rows()[0]
	assert.Equal(t, 0.0, row.Progress.Fraction())
	assert.Equal(t, "0 B / 0 B", row.Progress.Text())
	assert.Equal(t, ` mounted on "/empty"`, row.Label.Text())
}

func TestReconcileDuplicateMountPointsShareRow(t *testing.T) {
	p, _, _ := newTestPanel(t)

	second := root
	second.Name = "overlay"
	p.Reconcile([]models.Disk{root, second})

	require.Len(t, p.Rows(), 1)
	assert.Equal(t, `overlay mounted on "/"`, p.Rows()[0].Label.Text())
}

func TestRowMargins(t *testing.T) {
	p, _, _ := newTestPanel(t)

	p.Reconcile([]models.Disk{root, home})
	assert.Equal(t, 8, p.Rows()[0].Label.MarginTop())
	assert.Equal(t, 20, p.Rows()[1].Label.MarginTop())

	// rows added to a non-empty list never get the first-row margin
	p.Reconcile([]models.Disk{home, root})
	assert.Equal(t, []string{"/", "/home"}, mountPoints(p.Rows()))

	p.Reconcile(nil)
	require.Empty(t, p.Rows())
	assert.Equal(t, 0, p.container.Len())

	p.Reconcile([]models.Disk{home})
	assert.Equal(t, 8, p.Rows()[0].Label.MarginTop())
}

func TestRefreshButtonRepollsSource(t *testing.T) {
	p, src, _ := newTestPanel(t, root)

	src.disks = []models.Disk{root, home}
	p.RefreshButton().Click()
	assert.Equal(t, []string{"/", "/home"}, mountPoints(p.Rows()))

	src.disks = []models.Disk{home}
	p.RefreshButton().Click()
	assert.Equal(t, []string{"/home"}, mountPoints(p.Rows()))
}

func TestRefreshKeepsRowsWhenPollFails(t *testing.T) {
	p, src, _ := newTestPanel(t, root, home)

	src.err = errors.New("device busy")
	p.Refresh()

	assert.Equal(t, []string{"/", "/home"}, mountPoints(p.Rows()))
}
