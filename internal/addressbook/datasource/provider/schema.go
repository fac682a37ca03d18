package provider

// DBFile 联系人数据库文件名
const DBFile = "contacts.db"

// SchemaVersion 写入 PRAGMA user_version
const SchemaVersion = 1

// CREATE TABLE raw_contacts 每个联系人来源账户一条，聚合到 contacts
// CREATE TABLE contacts 聚合后的联系人，_id 即对外暴露的 id
// CREATE TABLE data 属性行，按 mimetype 区分 dataN 列含义
// CREATE TABLE photo_files 原图，zstd 压缩
var schema = []string{
	`CREATE TABLE IF NOT EXISTS raw_contacts(
		_id INTEGER PRIMARY KEY AUTOINCREMENT,
		contact_id INTEGER,
		display_name TEXT,
		starred INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS contacts(
		_id INTEGER PRIMARY KEY AUTOINCREMENT,
		lookup TEXT,
		display_name TEXT,
		starred INTEGER NOT NULL DEFAULT 0,
		has_phone_number INTEGER NOT NULL DEFAULT 0,
		photo_id INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS data(
		_id INTEGER PRIMARY KEY AUTOINCREMENT,
		raw_contact_id INTEGER NOT NULL REFERENCES raw_contacts(_id),
		mimetype TEXT NOT NULL,
		data1 TEXT, data2 TEXT, data3 TEXT, data4 TEXT, data5 TEXT,
		data6 TEXT, data7 TEXT, data8 TEXT, data9 TEXT, data10 TEXT,
		data14 INTEGER,
		data15 BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS photo_files(
		_id INTEGER PRIMARY KEY AUTOINCREMENT,
		content BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS data_raw_contact_id ON data(raw_contact_id, mimetype)`,
	`CREATE INDEX IF NOT EXISTS raw_contacts_contact_id ON raw_contacts(contact_id)`,
}

// 数据行的列，顺序与 ProviderDataRow 一致
const dataColumns = `d._id, d.raw_contact_id, d.mimetype,
	IFNULL(d.data1, ''), IFNULL(d.data2, ''), IFNULL(d.data3, ''), IFNULL(d.data4, ''), IFNULL(d.data5, ''),
	IFNULL(d.data6, ''), IFNULL(d.data7, ''), IFNULL(d.data8, ''), IFNULL(d.data9, ''), IFNULL(d.data10, ''),
	IFNULL(d.data14, 0), d.data15`
