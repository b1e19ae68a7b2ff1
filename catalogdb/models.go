package catalogdb

// Build is one stored reconciliation run.
type Build struct {
	RunID       string // run_id
	CreatedAt   int64  // created_at (unix ms)
	Routes      int    // routes
	Stops       int    // stops
	StopAliases int    // stop_aliases
}

// Route is a stored route record without its stop sequences.
type Route struct {
	Key           string            // route_key
	Route         string            // route
	ServiceType   string            // service_type
	Co            []string          // co (comma separated)
	Bound         map[string]string // bound (JSON object)
	OrigEn        string            // orig_en
	OrigZh        string            // orig_zh
	DestEn        string            // dest_en
	DestZh        string            // dest_zh
	GtfsID        *string           // gtfs_id
	NlbID         *string           // nlb_id
	FakeRoute     bool              // fake_route
	KmbCtbJoint   bool              // kmb_ctb_joint
	CtbIsCircular bool              // ctb_is_circular
}

// Stop is a stored stop.
type Stop struct {
	ID       string  // stop_id
	NameEn   string  // name_en
	NameZh   string  // name_zh
	Lat      float64 // lat
	Lng      float64 // lng
	RemarkEn *string // remark_en
	RemarkZh *string // remark_zh
}

// Alias is one stop identity map entry.
type Alias struct {
	Operator string // operator
	AliasID  string // alias_id
}
