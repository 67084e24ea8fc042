// Package directory holds the domain model of the user directory.
//
// # Aggregates
//
// User is the root aggregate. It embeds its Settings and Profile value
// objects together with the incoming friend-request map and the block list.
// Friendship and Notification are independent records that reference users
// only by key.
//
// # Visibility
//
// Every disclosable field of a User is guarded by a PrivacyLevel. The owner's
// PrivateView is never filtered; PublicView applies PrivacyLevel.IsVisible to
// each field for a given viewer relationship:
//
//	level     | stranger | friend
//	----------+----------+-------
//	Public    | yes      | yes
//	Friends   | no       | yes
//	Private   | no       | no
//
// # Notifications
//
// Notification is a closed sum type. Callers dispatch on the concrete kind
// through NotificationVisitor instead of type switches, so adding a kind is a
// compile error everywhere a visitor is missing its method.
package directory
