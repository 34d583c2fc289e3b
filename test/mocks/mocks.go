// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `go generate ./test/mocks`.
package mocks

//go:generate mockgen -source=../../internal/core/ports/remote_store.go -destination=remote_store_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/audit.go -destination=audit_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/inventory_service.go -destination=inventory_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/services/executor.go -destination=query_executor_mock.go -package=mocks QueryExecutor
//go:generate mockgen -source=../../internal/workers/audit_enqueuer.go -destination=task_enqueuer_mock.go -package=mocks TaskEnqueuer
