package edge

// Action is what the edge should do with a request.
type Action string

const (
	// ActionNext passes the request through untouched.
	ActionNext Action = "next"
	// ActionRewrite serves tenant content under a custom domain by
	// rewriting the request path to the tenant's canonical slug.
	ActionRewrite Action = "rewrite"
	// ActionRedirect issues a permanent redirect from a tenant slug to
	// its verified custom domain.
	ActionRedirect Action = "redirect"
	// ActionNotFound answers 404 for a custom domain with no published
	// site behind it.
	ActionNotFound Action = "not_found"
)

// Source records which layer answered the routing question.
type Source string

const (
	SourceCache Source = "cache"
	SourceStore Source = "store"
)

// Decision is the routing outcome for one request. Only the fields
// relevant to the Action are set: RewritePath for rewrites, RedirectURL
// and Status for redirects.
type Decision struct {
	Action      Action
	RewritePath string
	RedirectURL string
	Status      int
	Source      Source
	Subdomain   string
	Domain      string
}
