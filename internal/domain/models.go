package domain

// Models lists every table this service migrates.
func Models() []interface{} {
	return []interface{}{
		&Organisation{},
		&Employee{},
		&Department{},
		&DepartmentManager{},
		&Invitation{},
		&Notification{},
		&User{},
	}
}
