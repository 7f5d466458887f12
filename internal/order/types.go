// Package order provides single-table user and order modeling: a user's
// profile and orders share one partition key so one query returns them all.
package order

import (
	"github.com/hotrowlabs/hotrow/internal/dynamo"
)

// UserItem represents a user profile stored in DynamoDB.
// PK: USER#{userId}  SK: PROFILE#{userId}
type UserItem struct {
	UserID string
	Name   string
	Email  string
}

// PK returns the DynamoDB partition key for this user.
func (u *UserItem) PK() string {
	return dynamo.PrefixUser + u.UserID
}

// SK returns the DynamoDB sort key for this user.
func (u *UserItem) SK() string {
	return PrefixProfile + u.UserID
}

// OrderItem represents an order stored in DynamoDB.
// PK: USER#{userId}  SK: ORDER#{yyyymmdd}#{orderId}
//
// Orders also carry the sparse GSI1 attributes STATUS#{status} /
// {yyyymmdd}#{orderId}, so the status index only ever contains orders.
type OrderItem struct {
	UserID  string
	Date    string // yyyymmdd
	OrderID string
	Status  string
}

// PK returns the DynamoDB partition key for this order.
func (o *OrderItem) PK() string {
	return dynamo.PrefixUser + o.UserID
}

// SK returns the DynamoDB sort key for this order.
func (o *OrderItem) SK() string {
	return PrefixOrder + o.Date + "#" + o.OrderID
}

// GSI1PK returns the status index partition key for this order.
func (o *OrderItem) GSI1PK() string {
	return PrefixStatus + o.Status
}

// GSI1SK returns the status index sort key for this order.
func (o *OrderItem) GSI1SK() string {
	return o.Date + "#" + o.OrderID
}

// Partition is everything stored under one user's partition key.
type Partition struct {
	User   *UserItem
	Orders []*OrderItem
}
