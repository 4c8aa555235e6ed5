package usecase

import (
	"fmt"

	"content-planner/pkg/config"
)

// DeletePolicy decides what happens to dependents when a referenced record is
// deleted.
type DeletePolicy string

const (
	// PolicyOrphan leaves dangling references behind.
	PolicyOrphan  DeletePolicy = "orphan"
	PolicyCascade DeletePolicy = "cascade"
	// PolicyNullify clears the reference; only for optional references.
	PolicyNullify DeletePolicy = "nullify"
	PolicyReject  DeletePolicy = "reject"
)

func ParseDeletePolicy(value string) (DeletePolicy, error) {
	switch p := DeletePolicy(value); p {
	case PolicyOrphan, PolicyCascade, PolicyNullify, PolicyReject:
		return p, nil
	case "":
		return PolicyOrphan, nil
	}
	return "", fmt.Errorf("unknown delete policy %q", value)
}

// DeletePolicies holds one policy per relationship, named dependent-referenced.
type DeletePolicies struct {
	SchedulePost    DeletePolicy
	PostChannel     DeletePolicy
	ScheduleChannel DeletePolicy
	PostCampaign    DeletePolicy
}

func DefaultDeletePolicies() DeletePolicies {
	return DeletePolicies{
		SchedulePost:    PolicyOrphan,
		PostChannel:     PolicyOrphan,
		ScheduleChannel: PolicyOrphan,
		PostCampaign:    PolicyOrphan,
	}
}

func DeletePoliciesFromConfig(cfg *config.Config) (DeletePolicies, error) {
	var policies DeletePolicies
	var err error

	if policies.SchedulePost, err = parseRelationPolicy("DELETE_POLICY_SCHEDULE_POST", cfg.DeletePolicySchedulePost, false); err != nil {
		return policies, err
	}
	if policies.PostChannel, err = parseRelationPolicy("DELETE_POLICY_POST_CHANNEL", cfg.DeletePolicyPostChannel, true); err != nil {
		return policies, err
	}
	if policies.ScheduleChannel, err = parseRelationPolicy("DELETE_POLICY_SCHEDULE_CHANNEL", cfg.DeletePolicyScheduleChannel, false); err != nil {
		return policies, err
	}
	if policies.PostCampaign, err = parseRelationPolicy("DELETE_POLICY_POST_CAMPAIGN", cfg.DeletePolicyPostCampaign, true); err != nil {
		return policies, err
	}
	return policies, nil
}

// Schedule references are required, so they cannot be nullified.
func parseRelationPolicy(name, value string, nullable bool) (DeletePolicy, error) {
	policy, err := ParseDeletePolicy(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if policy == PolicyNullify && !nullable {
		return "", fmt.Errorf("%s: nullify is not allowed for a required reference", name)
	}
	return policy, nil
}
