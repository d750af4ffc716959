// Package config loads the optional --config YAML file and layers CLI
// flag values on top of it. A YAML file supplies defaults; any flag the
// operator actually set always wins, since the original tool is
// flags-only and the YAML layer is an addition, not a replacement.
package config
