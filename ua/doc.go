// Package ua implements the registration and message waiting indication
// lifecycle of a SIP user agent.
//
// An [Agent] keeps a contact bound at a registrar with periodic REGISTER
// transactions, answers digest challenges with [auth.Credentials] and maintains
// a message-summary subscription (RFC 3842) that reports voicemail status to
// the [Listener].
//
// The agent does not touch the network. REGISTER requests are submitted through
// a [TransactionSender], SUBSCRIBE requests through a [SubscriberDialog] created
// by a [DialogFactory]. Periodic re-registration is delegated to a [Scheduler].
//
// Registration state machine:
//
//	unregistered  --Register(t>0)-->  registering   --2xx-->          registered
//	registered    --Register(t>0)-->  registering   --failure/timeout--> unregistered
//	registered    --Unregister----->  deregistering --2xx-->          unregistered
//	                                  deregistering --failure/timeout--> registered
//
// Challenges (401/407) are answered up to [MaxAttempts] times per transaction
// without state change.
package ua

//go:generate errtrace -w .
//go:generate mockgen -destination=../internal/testutil/uamock/mock.go -package=uamock . Scheduler,Listener
