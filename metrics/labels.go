package metrics

const (
	namespaceExecution = "execution"
	subsystemModules   = "module_cache"
)

const (
	ResourceCrossBlockModule = "cross_block_module"
	ResourceCrossBlockScript = "cross_block_script"
	ResourceBlockModule      = "block_module"
	ResourceBlockScript      = "block_script"
)
