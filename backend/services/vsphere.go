// ABOUTME: vSphere data source for the dashboard via govmomi
// ABOUTME: Reads datacenter inventory and usage and builds dashboard snapshots

package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/virt-dashboard/internal/snapshot"
)

// VSphereCredentials holds vCenter connection info
type VSphereCredentials struct {
	Host       string
	Username   string
	Password   string
	Datacenter string
	Insecure   bool
}

// VSphereClient wraps govmomi client and implements snapshot.Source.
type VSphereClient struct {
	creds VSphereCredentials
	dial  DialContextFunc
	now   func() time.Time

	mu         sync.Mutex
	client     *govmomi.Client
	finder     *find.Finder
	datacenter *object.Datacenter
}

// NewVSphereClient creates a new vSphere client. dial may be nil for a
// direct connection.
func NewVSphereClient(creds VSphereCredentials, dial DialContextFunc) *VSphereClient {
	return &VSphereClient{
		creds: creds,
		dial:  dial,
		now:   time.Now,
	}
}

// Connect establishes connection to vCenter
func (v *VSphereClient) Connect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connectLocked(ctx)
}

func (v *VSphereClient) connectLocked(ctx context.Context) error {
	host := v.creds.Host
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}

	u, err := url.Parse(host + "/sdk")
	if err != nil {
		return fmt.Errorf("invalid vCenter URL '%s': %w", v.creds.Host, err)
	}
	u.User = url.UserPassword(v.creds.Username, v.creds.Password)

	client, err := v.newClient(ctx, u)
	if err != nil {
		return v.connectError(err)
	}

	v.client = client
	v.finder = find.NewFinder(client.Client, true)

	dc, err := v.finder.Datacenter(ctx, v.creds.Datacenter)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("datacenter '%s' not found - verify the datacenter name", v.creds.Datacenter)
		}
		return fmt.Errorf("error accessing datacenter '%s': %w", v.creds.Datacenter, err)
	}
	v.datacenter = dc
	v.finder.SetDatacenter(dc)

	slog.Info("vSphere connected successfully", "proxied", v.dial != nil)
	slog.Debug("vSphere connection details", "host", v.creds.Host, "datacenter", v.creds.Datacenter)
	return nil
}

// newClient is govmomi.NewClient with the transport routed through v.dial.
func (v *VSphereClient) newClient(ctx context.Context, u *url.URL) (*govmomi.Client, error) {
	sc := soap.NewClient(u, v.creds.Insecure)
	if v.dial != nil {
		sc.DefaultTransport().DialContext = v.dial
	}

	vc, err := vim25.NewClient(ctx, sc)
	if err != nil {
		return nil, err
	}

	c := &govmomi.Client{
		Client:         vc,
		SessionManager: session.NewManager(vc),
	}
	if err := c.Login(ctx, u.User); err != nil {
		return nil, err
	}
	return c, nil
}

func (v *VSphereClient) connectError(err error) error {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return fmt.Errorf("connection refused to vCenter at %s - verify the host is reachable", v.creds.Host)
	}
	if strings.Contains(errStr, "no such host") {
		return fmt.Errorf("cannot resolve vCenter hostname '%s' - verify DNS", v.creds.Host)
	}
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "Cannot complete login") {
		return fmt.Errorf("authentication failed - verify username and password")
	}
	if strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "timeout") {
		return fmt.Errorf("connection timeout to vCenter at %s - check network connectivity", v.creds.Host)
	}
	if strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509") {
		return fmt.Errorf("SSL certificate error connecting to %s - try setting VSPHERE_INSECURE=true", v.creds.Host)
	}
	return fmt.Errorf("failed to connect to vCenter at %s: %w", v.creds.Host, err)
}

// Disconnect closes the vCenter connection
func (v *VSphereClient) Disconnect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client == nil {
		return nil
	}
	err := v.client.Logout(ctx)
	v.client = nil
	return err
}

// IsConnected returns true if client has an active connection
func (v *VSphereClient) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.client != nil && v.client.Valid()
}

func (v *VSphereClient) Name() string {
	return "vsphere"
}

// Fetch collects a fresh snapshot of the configured datacenter, connecting
// or reconnecting first when the session is gone.
func (v *VSphereClient) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	v.mu.Lock()
	if v.client == nil || !v.client.Valid() {
		if err := v.connectLocked(ctx); err != nil {
			v.mu.Unlock()
			return nil, err
		}
	}
	client, dc := v.client.Client, v.datacenter
	v.mu.Unlock()

	start := v.now()
	raw, err := collect(ctx, client, dc.Reference())
	if err != nil {
		return nil, fmt.Errorf("collecting vSphere inventory: %w", err)
	}

	s := buildSnapshot(raw, start)
	slog.Info("vSphere inventory collected",
		"hosts", s.Inventory.Host.TotalCount,
		"vms", s.Inventory.VM.TotalCount,
		"datastores", s.Inventory.Storage.TotalCount,
		"duration_ms", v.now().Sub(start).Milliseconds(),
	)
	return s, nil
}

// collect retrieves every object kind concurrently. Datacenters are read
// from the root folder, everything else from inside dc.
func collect(ctx context.Context, c *vim25.Client, dc types.ManagedObjectReference) (rawInventory, error) {
	var raw rawInventory
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return retrieve(ctx, c, c.ServiceContent.RootFolder, "Datacenter",
			[]string{"name", "overallStatus", "triggeredAlarmState"}, &raw.Datacenters)
	})
	g.Go(func() error {
		return retrieve(ctx, c, dc, "ClusterComputeResource",
			[]string{"name", "triggeredAlarmState"}, &raw.Clusters)
	})
	g.Go(func() error {
		return retrieve(ctx, c, dc, "HostSystem",
			[]string{"name", "parent", "summary", "runtime", "triggeredAlarmState"}, &raw.Hosts)
	})
	g.Go(func() error {
		return retrieve(ctx, c, dc, "Datastore",
			[]string{"summary", "triggeredAlarmState"}, &raw.Datastores)
	})
	g.Go(func() error {
		return retrieve(ctx, c, dc, "VirtualMachine",
			[]string{"name", "runtime", "summary", "triggeredAlarmState"}, &raw.VMs)
	})

	if err := g.Wait(); err != nil {
		return rawInventory{}, err
	}
	return raw, nil
}

func retrieve(ctx context.Context, c *vim25.Client, root types.ManagedObjectReference, kind string, props []string, dst any) error {
	m := view.NewManager(c)
	cv, err := m.CreateContainerView(ctx, root, []string{kind}, true)
	if err != nil {
		return fmt.Errorf("creating %s view: %w", kind, err)
	}
	defer func() {
		if err := cv.Destroy(context.WithoutCancel(ctx)); err != nil {
			slog.Debug("Destroying container view failed", "kind", kind, "error", err)
		}
	}()

	if err := cv.Retrieve(ctx, []string{kind}, props, dst); err != nil {
		return fmt.Errorf("retrieving %s: %w", kind, err)
	}
	return nil
}

var _ snapshot.Source = (*VSphereClient)(nil)
