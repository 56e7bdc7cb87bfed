// Package scratch owns the disposable directory that dependency sources are
// extracted into.
//
// # Ownership
//
// The scratch directory belongs to this package alone. Every generation run
// begins by wiping its contents, so pointing it at a directory that holds
// anything else WILL DESTROY THAT DATA. The config layer refuses the most
// obvious misconfigurations (scratch at or above the project root), but the
// ultimate responsibility sits with whoever writes the configuration.
//
// # Basic Usage
//
//	m := scratch.NewManager("/proj/.deptags/dependency-src")
//	if err := m.Clear(); err != nil {
//	    return err
//	}
//	err := m.Materialize("/home/u/.ivy2/lib-sources.jar", keep)
//
// Clear is idempotent and succeeds on a missing directory. Materialize
// extracts only entries accepted by the predicate, preserving each entry's
// relative path. Extraction is best effort per archive: a failure partway
// leaves already-written files in place, which is fine because the next run
// clears everything again.
package scratch
