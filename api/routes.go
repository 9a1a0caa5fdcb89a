package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// ProposalsEndpoint is the endpoint listing all known proposals
	ProposalsEndpoint = "/proposals"
	// ProposalEndpoint is the endpoint to get a single proposal
	ProposalURLParam = "proposalId"
	ProposalEndpoint = "/proposals/{" + ProposalURLParam + "}"
	// VotesEndpoint is the endpoint for submitting a vote
	VotesEndpoint = "/votes"
)
