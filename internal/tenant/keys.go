// Package tenant provides shared-table multitenancy: every partition key
// carries a leading TENANT# segment, which is what the store's ABAC policy
// matches on. Enforcement is the store's job; this package only builds the
// keys and classifies the outcome of a cross-tenant probe.
package tenant

import (
	"github.com/hotrowlabs/hotrow/internal/dynamo"
	"github.com/hotrowlabs/hotrow/internal/order"
)

// Namespace builds keys scoped to one tenant.
type Namespace struct {
	TenantID string
}

// UserPK returns the partition key for a user in this tenant.
// TENANT#{tenantId}#USER#{userId}
func (n Namespace) UserPK(userID string) string {
	return dynamo.PrefixTenant + n.TenantID + "#" + dynamo.PrefixUser + userID
}

// StatusPK returns the tenant-scoped status index partition key.
// TENANT#{tenantId}#STATUS#{status}
func (n Namespace) StatusPK(status string) string {
	return dynamo.PrefixTenant + n.TenantID + "#" + order.PrefixStatus + status
}

// GlobalStatusPK returns the cross-tenant status index partition key. The
// global index exists to show what tenant scoping prevents: one key exposes
// every tenant's orders.
func GlobalStatusPK(status string) string {
	return order.PrefixStatus + status
}

// EventLogicalKey returns the logical key for a tenant user's sharded event
// stream, suitable for the shard router.
func (n Namespace) EventLogicalKey(userID string) string {
	return n.UserPK(userID)
}
