package entity

import "encoding/json"

type CampaignStatus string

const (
	CampaignStatusPlanning  CampaignStatus = "planning"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusPlanning, CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	}
	return false
}

type Campaign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      CampaignStatus `json:"status"`
}

func (c Campaign) GetID() string { return c.ID }

func (c Campaign) WithID(id string) Campaign {
	c.ID = id
	return c
}

type CreateCampaignInput struct {
	ID          json.RawMessage `json:"id,omitempty" swaggerignore:"true"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      CampaignStatus  `json:"status" binding:"omitempty,oneof=planning active paused completed"`
}

func (in CreateCampaignInput) Validate() FieldErrors {
	errs := FieldErrors{}
	if in.Status != "" && !in.Status.Valid() {
		errs.Add("status", "must be one of planning, active, paused, completed")
	}
	return errs
}

func (in CreateCampaignInput) ToCampaign() Campaign {
	campaign := Campaign{Name: in.Name, Description: in.Description, Status: in.Status}
	if campaign.Status == "" {
		campaign.Status = CampaignStatusPlanning
	}
	return campaign
}

type CampaignPatch struct {
	ID          json.RawMessage          `json:"id,omitempty" swaggerignore:"true"`
	Name        Optional[string]         `json:"name,omitzero" swaggertype:"string"`
	Description Optional[string]         `json:"description,omitzero" swaggertype:"string"`
	Status      Optional[CampaignStatus] `json:"status,omitzero" swaggertype:"string" enums:"planning,active,paused,completed"`
}

func (p CampaignPatch) Validate() FieldErrors {
	errs := FieldErrors{}
	requireNonNull(errs, "name", p.Name)
	requireNonNull(errs, "status", p.Status)
	if p.Status.Set && !p.Status.Null && !p.Status.Value.Valid() {
		errs.Add("status", "must be one of planning, active, paused, completed")
	}
	return errs
}

func (p CampaignPatch) Apply(campaign Campaign) Campaign {
	if p.Name.Set {
		campaign.Name = p.Name.Value
	}
	if p.Description.Set {
		campaign.Description = p.Description.Value
	}
	if p.Status.Set {
		campaign.Status = p.Status.Value
	}
	return campaign
}
