// Package mysql provides the plan-history repository. It records metadata
// about every issued plan (never conversation content) behind a small
// PlanRepository interface, with a JSON-log memory implementation for local
// development and a MySQL implementation for deployments.
package mysql
