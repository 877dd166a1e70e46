package models

// Collection names a cached read model that mutations invalidate.
type Collection string

const (
	CollectionFollowUps        Collection = "followups"
	CollectionEnquiries        Collection = "enquiries"
	CollectionRegistrations    Collection = "registrations"
	CollectionEnrollments      Collection = "enrollments"
	CollectionApprovalRequests Collection = "approval_requests"
	CollectionNotifications    Collection = "notifications"
)

// Pattern returns the cache key pattern covering the collection.
func (c Collection) Pattern() string {
	return string(c) + ":*"
}

// MutationRoute tells whether a gated mutation runs now or waits for review.
type MutationRoute string

const (
	RouteDirect   MutationRoute = "DIRECT"
	RouteDeferred MutationRoute = "DEFERRED"
)
