package models

// OptionTableName is the name of the key/value settings table.
const OptionTableName = "trackit_options"

// Option keys of the persisted tracking configuration.
const (
	OptionTrackRoles     = "trackit_option_track_roles"
	OptionEraseUninstall = "trackit_option_erase_uninstall"
)

// Option is a single persisted setting.
type Option struct {
	Name  string `gorm:"primaryKey;size:191"`
	Value string `gorm:"type:text;not null;default:''"`
}

// TableName pins the table name.
func (Option) TableName() string {
	return OptionTableName
}
