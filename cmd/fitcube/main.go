// Command fitcube is a demonstration CLI around the χ² engine and
// minimiser wrapper: it loads an observation/model FITS cube pair plus a
// YAML fit recipe, runs one of the three minimiser back-ends against
// sigma_v (and, optionally, a toy amplitude parameter), and reports the
// best-fit χ² and parameters. It does not reproduce the ring-synthesis
// renderer or the full fit-parameter catalogue of the original tool
// (spec §1 Non-goals) — the model cube must already hold a point-source
// realization on disk.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
