package pipeline

// Filter ordering is a single shared integer namespace: smaller runs
// first. Anchors leave gaps so new filters can be inserted without
// renumbering. Documented dependencies:
//
//   - CORS decisions happen before everything else
//   - request-context (trace id, ambient request) before any logging
//   - body caching before any filter that reads the body
//   - access logging after body cache and request context
//   - content inspection after body cache
//   - authentication before the tenant post-check and the demo guard
//   - the demo write-guard is the absolute last blocking filter
//
// Pipeline.Validate asserts the relative order of registered filters
// against these dependencies at startup.
const (
	OrderCORS           = -1000
	OrderRequestContext = -900
	OrderBodyCache      = -800
	OrderAccessLog      = -600
	OrderContentGuard   = -500
	OrderAuth           = 0
	OrderTenantCheck    = 100
	OrderDemoGuard      = 1000
)

// Well-known filter names, used by Validate and by tests.
const (
	FilterCORS           = "cors"
	FilterRequestContext = "request_context"
	FilterBodyCache      = "body_cache"
	FilterAccessLog      = "access_log"
	FilterContentGuard   = "content_guard"
	FilterAuth           = "auth"
	FilterTenantCheck    = "tenant_check"
	FilterDemoGuard      = "demo_guard"
)

// orderDependencies are the (before, after) pairs Validate enforces for
// filters that are actually registered.
var orderDependencies = [][2]string{
	{FilterCORS, FilterRequestContext},
	{FilterCORS, FilterBodyCache},
	{FilterRequestContext, FilterAccessLog},
	{FilterBodyCache, FilterAccessLog},
	{FilterBodyCache, FilterContentGuard},
	{FilterAuth, FilterTenantCheck},
	{FilterAuth, FilterDemoGuard},
	{FilterAccessLog, FilterDemoGuard},
}
