// Package digest emails every user a daily summary of their tasks.
//
// Job performs a single pass over all users. Scheduler fires the job on a cron
// schedule in a configured time zone and guards each run with a Locker so that
// two runs never overlap, whether they come from the same process or another.
package digest
