/*
Package operation implements the per-file patch workflow and the bounded
runner that drives it over many files.

	+-------------+
	|   Runner    |
	| (Scheduler) |
	+------+------+
	       |
	+------+------+
	|  Operation  |
	|  (Per File) |
	+------+------+

🎯 Purpose:
- Orchestrates read, scan, apply, backup, write, sign, and xattr steps
- Bounds concurrent file processing to a fixed worker budget
- Isolates per-file failures from sibling tasks

🔄 Flow:
1. Caller produces one Operation per candidate file
2. Runner pulls operations on demand and executes at most N at once
3. Each operation scans its file against the catalog and patches matches
4. Results are collected and reported after full settlement

🤝 Interfaces:
- Signer: re-signs a patched file (external codesign tool)
- XattrClearer: strips extended attributes (external xattr tool)

Both tool interfaces are narrow so tests substitute fakes; their failures
are warnings on top of an otherwise-successful patch, never task failures.

📝 Design Philosophy:
The scan and apply steps are pure functions over byte buffers (package
signature); this package owns every side effect. Destination writes go
through a temp-file-and-rename so a crash mid-write never leaves a
half-written file observable under its final name.

🔍 Example:

	op, err := operation.NewPatchOperation(path, opts)
	results := runner.Run(ctx, ops)
*/
package operation
