// Package probe implements the individual host toolchain probes: environment
// and tool resolution, platform classification, compiler flag support checks
// and include directory discovery. Everything goes through hostenv.Host and
// runs strictly sequentially; optional probes degrade to "unsupported"
// instead of failing the configuration.
package probe
