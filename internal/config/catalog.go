package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/example/room-booker/internal/domain/room"
)

type catalogFile struct {
	Rooms []struct {
		ID       string `mapstructure:"id"`
		Name     string `mapstructure:"name"`
		Closed   bool   `mapstructure:"closed"`
		Schedule []struct {
			DayOfWeek int `mapstructure:"day_of_week"`
			OpenHour  int `mapstructure:"open_hour"`
			CloseHour int `mapstructure:"close_hour"`
		} `mapstructure:"schedule"`
		Sections []struct {
			ID       string `mapstructure:"id"`
			Name     string `mapstructure:"name"`
			Capacity int    `mapstructure:"capacity"`
		} `mapstructure:"sections"`
	} `mapstructure:"rooms"`
}

// LoadCatalog reads rooms and their sections from a YAML, JSON or TOML file.
// Every entry is validated; the first invalid one fails the load.
func LoadCatalog(path string) ([]room.Room, []room.Section, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	var rooms []room.Room
	var sections []room.Section
	for _, fr := range f.Rooms {
		rm := room.Room{ID: fr.ID, Name: fr.Name, Closed: fr.Closed}
		for _, d := range fr.Schedule {
			rm.Schedule = append(rm.Schedule, room.DaySchedule{DayOfWeek: d.DayOfWeek, OpenHour: d.OpenHour, CloseHour: d.CloseHour})
		}
		if err := rm.Validate(); err != nil {
			return nil, nil, err
		}
		rooms = append(rooms, rm)

		for _, fs := range fr.Sections {
			sec := room.Section{ID: fs.ID, RoomID: rm.ID, Name: fs.Name, Capacity: fs.Capacity}
			if err := sec.Validate(); err != nil {
				return nil, nil, fmt.Errorf("room %q: %w", rm.Name, err)
			}
			sections = append(sections, sec)
		}
	}
	return rooms, sections, nil
}
