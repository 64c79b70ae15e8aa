// Package eventlog reads recorded entry and exit events from YAML and
// replays them into an event sink.
//
// An event log lets examples be recorded from programs that cannot be
// instrumented in process: another runtime writes its call events, and
// Replay feeds them to a recorder exactly as a live source would.
//
// Format:
//
//	name: checkout-session
//	events:
//	  - kind: entry
//	    type: Object
//	    function: double
//	    path: app/math.rb
//	    line: 3
//	    depth: 4
//	    params: [{name: x, kind: positional}]
//	    args:
//	      x: {class_name: Integer, value: 2}
//	  - kind: exit
//	    type: Object
//	    function: double
//	    path: app/math.rb
//	    line: 3
//	    depth: 4
//	    return: {class_name: Integer, value: 4}
//
// Parameters listed under unresolved are present in the declaration but
// their value could not be read by the producer; replaying such an entry
// exercises the recorder's resolution-failure path.
package eventlog
