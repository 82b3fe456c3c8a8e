package featureflag

type Flag string

const (
	// FlagPrefetch adds a second visibility pass shifted along the viewing
	// direction, so the report includes the chunks a forward-moving viewport
	// needs next.
	FlagPrefetch Flag = "PREFETCH"

	// FlagDumpLayouts includes the interned chunk layouts in the report.
	FlagDumpLayouts Flag = "DUMP_LAYOUTS"
)
