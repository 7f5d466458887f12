// Package dynamo provides shared DynamoDB constants and utilities.
package dynamo

const (
	// Primary key attributes.
	AttrPK = "PK"
	AttrSK = "SK"

	// Item type attribute, present on every item.
	AttrType = "type"

	// Key prefixes shared across domains.
	PrefixUser   = "USER#"
	PrefixTenant = "TENANT#"

	// GSI key attributes.
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"
	AttrGSI2PK = "GSI2PK"
	AttrGSI2SK = "GSI2SK"

	// Index names. IndexStatus lives on per-attendee tables,
	// IndexTenantStatus and IndexGlobalStatus on the shared table.
	IndexStatus       = "GSI1_Status"
	IndexTenantStatus = "GSI1"
	IndexGlobalStatus = "GSI2_StatusGlobal"
)
