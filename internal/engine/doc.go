// Package engine contains the shift loop and simulation logic.
// This is the heartbeat of "The Last Shift".
//
// ARCHITECTURAL RULE: the Session owns every piece of shift state. Input
// adapters talk to it through player.ActionState and Command; renderers only
// ever see a Snapshot. Sub-systems never hold state of their own beyond
// counters and timers; they act on the Session they are handed.
package engine
