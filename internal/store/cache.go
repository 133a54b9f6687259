package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ajohnson23/runcoach/internal/models"
)

// ReplaceMessages swaps the cached conversation for the given list,
// preserving the given order.
func (s *Store) ReplaceMessages(msgs []models.ChatMessage) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		for i := range msgs {
			msgs[i].ID = 0
			if err := tx.Create(&msgs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: replace messages: %w", err)
	}
	return nil
}

// AppendMessage appends one message to the cached conversation.
func (s *Store) AppendMessage(msg *models.ChatMessage) error {
	if err := s.db.Create(msg).Error; err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return nil
}

// Messages returns the cached conversation in append order.
func (s *Store) Messages() ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := s.db.Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: messages: %w", err)
	}
	return msgs, nil
}

// ReplaceWorkouts swaps the cached workout list.
func (s *Store) ReplaceWorkouts(workouts []models.Workout) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Workout{}).Error; err != nil {
			return err
		}
		for i := range workouts {
			workouts[i].ID = 0
			if err := tx.Create(&workouts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: replace workouts: %w", err)
	}
	return nil
}

// Workouts returns the cached workout list.
func (s *Store) Workouts() ([]models.Workout, error) {
	var workouts []models.Workout
	if err := s.db.Order("remote_id ASC").Find(&workouts).Error; err != nil {
		return nil, fmt.Errorf("store: workouts: %w", err)
	}
	return workouts, nil
}

// RecordNotification appends a received push notification to the log.
func (s *Store) RecordNotification(title, body, data string) error {
	n := models.Notification{
		Title:      title,
		Body:       body,
		Data:       data,
		ReceivedAt: time.Now(),
	}
	if err := s.db.Create(&n).Error; err != nil {
		return fmt.Errorf("store: record notification: %w", err)
	}
	return nil
}

// RecentNotifications returns up to limit notifications, newest first.
func (s *Store) RecentNotifications(limit int) ([]models.Notification, error) {
	var ns []models.Notification
	if err := s.db.Order("id DESC").Limit(limit).Find(&ns).Error; err != nil {
		return nil, fmt.Errorf("store: recent notifications: %w", err)
	}
	return ns, nil
}

// SaveDevice upserts the single device registration record.
func (s *Store) SaveDevice(token string, physical, permissionGranted bool) error {
	dev := models.Device{
		ID:                1,
		PushToken:         token,
		Physical:          physical,
		PermissionGranted: permissionGranted,
		UpdatedAt:         time.Now(),
	}
	if err := s.db.Save(&dev).Error; err != nil {
		return fmt.Errorf("store: save device: %w", err)
	}
	return nil
}

// Device returns the device registration record, if one exists.
func (s *Store) Device() (*models.Device, bool) {
	var dev models.Device
	if err := s.db.First(&dev, 1).Error; err != nil {
		return nil, false
	}
	return &dev, true
}
