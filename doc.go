// Package qasid routes customer-support conversations. Each inbound message
// flows through an explicit pipeline: input guardrails, sentiment flagging,
// deterministic knowledge lookups (FAQ, order status), and finally delegation
// to a model-backed agent with tool access, escalating to a human role when
// the delegate is not confident.
//
// The pipeline order is fixed: guardrail > sentiment escalation > FAQ >
// order tool > agent delegation > human fallback. Order-style queries take
// priority over FAQ matches because order intent is the more specific signal.
package qasid
