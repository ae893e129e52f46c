// Package rxr models the RxR guide annotations consumed by rxrprep.
//
// An [Instruction] is the typed view of one jsonl.gz line: the scene, split,
// language and id of an instruction plus its landmark annotations, kept as
// parallel index-aligned sequences. A [Record] is the untyped view of the same
// line: every field, in the order it appeared, so tools that pass records
// through (the args builder) reproduce fields they do not know about.
//
// [Instructions] streams typed records from one or more files:
//
//	for inst, err := range rxr.Instructions(paths...) {
//	    if err != nil {
//	        return err
//	    }
//	    // ...
//	}
package rxr
