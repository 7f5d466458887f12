package order

// Key prefixes for DynamoDB sort keys.
const (
	PrefixProfile = "PROFILE#"
	PrefixOrder   = "ORDER#"
	PrefixStatus  = "STATUS#"
)

// Item types.
const (
	TypeUser  = "USER"
	TypeOrder = "ORDER"
)

// Attribute names for DynamoDB items.
const (
	AttrName   = "name"
	AttrEmail  = "email"
	AttrStatus = "status"
)

// Order statuses used by the demo data.
const (
	StatusPending = "PENDING"
	StatusShipped = "SHIPPED"
)
