// Package jobs runs the periodic background work of the API.
//
// Jobs run independently of request handling:
//
//   - ReminderProcessor: reminds members of unanswered assignments and
//     suggestion slots for upcoming services
//   - SlotExpirer: expires suggestion slots past their deadline
//   - TokenCleanup: removes expired refresh tokens
//
// Every job has Start, Stop, RunOnce and IsRunning. Start launches a loop that
// runs the job once and then on its interval; Stop cancels the in-flight run
// and waits for the loop to exit. RunOnce is the manual trigger used by tests.
//
// Failed runs are logged and counted in metrics but never stop the loop.
package jobs
