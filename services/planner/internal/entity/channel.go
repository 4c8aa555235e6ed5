package entity

import "encoding/json"

type ChannelType string

const (
	ChannelTypeSocial       ChannelType = "social"
	ChannelTypeProfessional ChannelType = "professional"
	ChannelTypeContent      ChannelType = "content"
	ChannelTypeEmail        ChannelType = "email"
)

func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypeSocial, ChannelTypeProfessional, ChannelTypeContent, ChannelTypeEmail:
		return true
	}
	return false
}

const DefaultChannelColor = "#000000"

type Channel struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Type  ChannelType `json:"type"`
	Color string      `json:"color"`
}

func (c Channel) GetID() string { return c.ID }

func (c Channel) WithID(id string) Channel {
	c.ID = id
	return c
}

type CreateChannelInput struct {
	ID    json.RawMessage `json:"id,omitempty" swaggerignore:"true"`
	Name  string          `json:"name"`
	Type  ChannelType     `json:"type" binding:"omitempty,oneof=social professional content email"`
	Color string          `json:"color"`
}

func (in CreateChannelInput) Validate() FieldErrors {
	errs := FieldErrors{}
	if in.Type != "" && !in.Type.Valid() {
		errs.Add("type", "must be one of social, professional, content, email")
	}
	return errs
}

func (in CreateChannelInput) ToChannel() Channel {
	channel := Channel{Name: in.Name, Type: in.Type, Color: in.Color}
	if channel.Type == "" {
		channel.Type = ChannelTypeSocial
	}
	if channel.Color == "" {
		channel.Color = DefaultChannelColor
	}
	return channel
}

type ChannelPatch struct {
	ID    json.RawMessage       `json:"id,omitempty" swaggerignore:"true"`
	Name  Optional[string]      `json:"name,omitzero" swaggertype:"string"`
	Type  Optional[ChannelType] `json:"type,omitzero" swaggertype:"string" enums:"social,professional,content,email"`
	Color Optional[string]      `json:"color,omitzero" swaggertype:"string"`
}

func (p ChannelPatch) Validate() FieldErrors {
	errs := FieldErrors{}
	requireNonNull(errs, "name", p.Name)
	requireNonNull(errs, "type", p.Type)
	requireNonNull(errs, "color", p.Color)
	if p.Type.Set && !p.Type.Null && !p.Type.Value.Valid() {
		errs.Add("type", "must be one of social, professional, content, email")
	}
	return errs
}

func (p ChannelPatch) Apply(channel Channel) Channel {
	if p.Name.Set {
		channel.Name = p.Name.Value
	}
	if p.Type.Set {
		channel.Type = p.Type.Value
	}
	if p.Color.Set {
		channel.Color = p.Color.Value
	}
	return channel
}
