// Package events provides event types, subjects and the publisher used by
// the puppet to report out-of-band events to observers.
package events

// Event types emitted by a puppet
const (
	PuppetError  = "error"
	PuppetState  = "state"
	PuppetLogin  = "login"
	PuppetLogout = "logout"
	PuppetDirty  = "dirty"
)

// Event types exchanged with an injected agent over the bus
const (
	SidecarMethods = "sidecar.methods"
	SidecarCall    = "sidecar.call"
	SidecarResult  = "sidecar.result"
)

const (
	puppetSubjectPrefix  = "puppet."
	sidecarSubjectPrefix = "sidecar."
)

// BuildPuppetSubject creates the subject a puppet publishes eventType on
func BuildPuppetSubject(puppetName, eventType string) string {
	return puppetSubjectPrefix + puppetName + "." + eventType
}

// BuildPuppetWildcardSubject creates a wildcard subscription for all events of one puppet
func BuildPuppetWildcardSubject(puppetName string) string {
	return puppetSubjectPrefix + puppetName + ".*"
}

// BuildSidecarMethodsSubject creates the subject an agent announces its method list on
func BuildSidecarMethodsSubject(session string) string {
	return sidecarSubjectPrefix + session + ".methods"
}

// BuildSidecarCallSubject creates the subject an agent serves method calls on
func BuildSidecarCallSubject(session string) string {
	return sidecarSubjectPrefix + session + ".call"
}
