package migration

import (
	"fmt"

	"recipe-vault/entities"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type foreignKey struct {
	table string
	name  string
	ddl   string
}

// Relations between tables. AutoMigrate does not create these because the
// entities hold plain id columns instead of associations.
var foreignKeys = []foreignKey{
	{"recipes", "fk_recipes_author", "FOREIGN KEY (author_id) REFERENCES users(id)"},
	{"recipes", "fk_recipes_original_recipe", "FOREIGN KEY (original_recipe_id) REFERENCES recipes(id)"},
	{"recipes", "fk_recipes_previous_version", "FOREIGN KEY (previous_version_id) REFERENCES recipes(id) ON DELETE SET NULL"},
	{"user_recipe_saves", "fk_user_recipe_saves_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
	{"user_recipe_saves", "fk_user_recipe_saves_recipe", "FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE"},
	{"recipe_lists", "fk_recipe_lists_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
	{"recipe_list_recipes", "fk_recipe_list_recipes_list", "FOREIGN KEY (recipe_list_id) REFERENCES recipe_lists(id) ON DELETE CASCADE"},
	{"recipe_list_recipes", "fk_recipe_list_recipes_recipe", "FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE"},
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	models := []struct {
		name  string
		model interface{}
	}{
		{"user", &entities.User{}},
		{"recipe", &entities.Recipe{}},
		{"user recipe save", &entities.UserRecipeSave{}},
		{"recipe list", &entities.RecipeList{}},
		{"recipe list recipe", &entities.RecipeListRecipe{}},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			log.Error("error migrating database", zap.String("model", m.name), zap.Error(err))
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}

	if db.Dialector.Name() == "postgres" {
		for _, fk := range foreignKeys {
			if db.Migrator().HasConstraint(fk.table, fk.name) {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", fk.table, fk.name, fk.ddl)
			if err := db.Exec(stmt).Error; err != nil {
				log.Error("error adding foreign key", zap.String("constraint", fk.name), zap.Error(err))
				return fmt.Errorf("add constraint %s: %w", fk.name, err)
			}
		}
	}

	log.Info("database migration complete")
	return nil
}
