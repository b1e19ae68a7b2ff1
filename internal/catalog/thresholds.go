package catalog

// Reconciliation thresholds. Downstream consumers depend on the
// classifications these produce, so they are fixed rather than configurable.
const (
	// GeneralMatchKm is the largest distance at which two stops are treated
	// as the same physical stop.
	GeneralMatchKm = 0.3

	// TightProbeKm bounds the distance accepted when skipping ahead in the
	// reference sequence during alignment.
	TightProbeKm = 0.05

	// EndWindow is how many stops at each end of a partner sequence are
	// compared against the reference terminals.
	EndWindow = 6

	// ProbeDepth is how many reference positions past the cursor are probed.
	ProbeDepth = 4

	// CircularFraction is the live-membership fraction above which a route is
	// considered to cover both directions.
	CircularFraction = 0.75

	// EndpointProximityKm decides whether a fabricated record shares the
	// terminals of a circular record.
	EndpointProximityKm = 0.1

	// MaxIDAttempts bounds synthetic id generation.
	MaxIDAttempts = 10000
)
